package mqtt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tunnelz/tunnels/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "tunnels-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS: 0,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// =============================================================================
// Option Tests
// =============================================================================

func TestUniqueClientID(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "configured base", base: "render-left", want: "render-left-"},
		{name: "empty base", base: "", want: defaultClientIDBase + "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniqueClientID(tt.base)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("uniqueClientID(%q) = %q, want prefix %q", tt.base, got, tt.want)
			}
			if len(got) != len(tt.want)+clientIDSuffixLen {
				t.Errorf("uniqueClientID(%q) length = %d, want %d", tt.base, len(got), len(tt.want)+clientIDSuffixLen)
			}
		})
	}

	if uniqueClientID("r") == uniqueClientID("r") {
		t.Error("uniqueClientID() returned the same ID twice")
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "renderer"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg, "tunnels-test-abc")

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want [tcp://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "tunnels-test-abc" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "tunnels-test-abc")
	}
	if opts.Username != "renderer" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q, want renderer/secret", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false, want true")
	}
	if opts.MaxReconnectInterval != 5*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 5s", opts.MaxReconnectInterval)
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Errorf("TLSConfig set without TLS enabled")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg, "id")

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLSConfig = %+v, want MinVersion TLS1.2", opts.TLSConfig)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig(), "render-01")
	configureLWT(opts, "render-01")

	if !opts.WillEnabled {
		t.Fatal("WillEnabled = false, want true")
	}
	if opts.WillTopic != "tunnels/system/status/render-01" {
		t.Errorf("WillTopic = %q, want tunnels/system/status/render-01", opts.WillTopic)
	}
	if opts.WillQos != statusQoS {
		t.Errorf("WillQos = %d, want %d", opts.WillQos, statusQoS)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}
	payload := string(opts.WillPayload)
	if !strings.Contains(payload, `"status":"offline"`) || !strings.Contains(payload, `"client_id":"render-01"`) {
		t.Errorf("WillPayload = %s", payload)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := statusPayload("render-01", statusOnline, "")
	if !strings.Contains(online, `"status":"online"`) || strings.Contains(online, `"reason"`) {
		t.Errorf("online payload = %s", online)
	}

	offline := statusPayload("render-01", statusOffline, reasonShutdown)
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", offline)
	}
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	if got := (Topics{}).ClientStatus("render-01"); got != "tunnels/system/status/render-01" {
		t.Errorf("ClientStatus() = %q, want tunnels/system/status/render-01", got)
	}

	filters := Topics{}.FrameFilters("show")
	if len(filters) != 2 || filters[0] != "show" || filters[1] != "show/#" {
		t.Errorf("FrameFilters(show) = %v, want [show show/#]", filters)
	}
}

// =============================================================================
// Validation Tests (no broker)
// =============================================================================

func TestPublish_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{name: "empty topic", topic: "", payload: []byte("x"), qos: 0, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: "tunnels", payload: []byte("x"), qos: 3, wantErr: ErrInvalidQoS},
		{name: "payload too large", topic: "tunnels", payload: make([]byte, maxPayloadSize+1), qos: 0, wantErr: ErrPublishFailed},
		{name: "not connected", topic: "tunnels", payload: []byte("x"), qos: 0, wantErr: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 0, handler: noop, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: "tunnels", qos: 5, handler: noop, wantErr: ErrInvalidQoS},
		{name: "nil handler", topic: "tunnels", qos: 0, handler: nil, wantErr: ErrSubscribeFailed},
		{name: "not connected", topic: "tunnels", qos: 0, handler: noop, wantErr: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
			if c.HasSubscription(tt.topic) {
				t.Errorf("failed subscription to %q was tracked", tt.topic)
			}
		})
	}
}

func TestUnsubscribe_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Unsubscribe("tunnels"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

func TestWrapHandler_RecoversPanic(t *testing.T) {
	logger := &recordingLogger{}
	c := &Client{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})
	wrapped(nil, fakeMessage{topic: "tunnels", payload: []byte("x")})

	if logger.errors != 1 {
		t.Errorf("logged errors = %d, want 1", logger.errors)
	}
}

func TestWrapHandler_LogsHandlerError(t *testing.T) {
	logger := &recordingLogger{}
	c := &Client{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		return errors.New("bad frame")
	})
	wrapped(nil, fakeMessage{topic: "tunnels", payload: []byte("x")})

	if logger.warns != 1 {
		t.Errorf("logged warnings = %d, want 1", logger.warns)
	}
}

type recordingLogger struct {
	errors int
	warns  int
}

func (l *recordingLogger) Error(string, ...any) { l.errors++ }
func (l *recordingLogger) Warn(string, ...any)  { l.warns++ }

// fakeMessage implements pahomqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (fakeMessage) Duplicate() bool   { return false }
func (fakeMessage) Qos() byte         { return 0 }
func (fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string   { return m.topic }
func (fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte { return m.payload }
func (fakeMessage) Ack()              {}
