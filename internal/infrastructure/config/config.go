package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport kinds accepted in transport.kind.
const (
	TransportZMQ  = "zmq"
	TransportMQTT = "mqtt"
)

// Config is the root configuration structure for Tunnels.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Receiver  ReceiverConfig  `yaml:"receiver"`
	Publisher PublisherConfig `yaml:"publisher"`
	MIDI      MIDIConfig      `yaml:"midi"`
	Database  DatabaseConfig  `yaml:"database"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TransportConfig selects and addresses the frame pub/sub transport.
type TransportConfig struct {
	// Kind is "zmq" (default) or "mqtt".
	Kind string `yaml:"kind"`

	// Host and Port locate the publisher (zmq) or broker (mqtt).
	// For mqtt the broker address comes from the mqtt section instead.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Topic is the subscription prefix. Every envelope is [topic, payload].
	Topic string `yaml:"topic"`

	// Buffer is the number of envelopes held between the socket and the receiver.
	Buffer int `yaml:"buffer"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// ReceiverConfig controls the renderer-side receive path.
type ReceiverConfig struct {
	// QueueSize bounds the hand-off queue between the receive worker and the render loop.
	QueueSize int `yaml:"queue_size"`

	// StatsInterval is how often frame statistics are logged and written (seconds).
	// 0 disables reporting.
	StatsInterval int `yaml:"stats_interval"`

	// RenderInterval is the render loop period in milliseconds.
	RenderInterval int `yaml:"render_interval"`
}

// PublisherConfig controls the test-pattern publisher.
type PublisherConfig struct {
	// Host is the bind address for the zmq PUB socket ("*" binds all interfaces).
	Host      string  `yaml:"host"`
	Port      int     `yaml:"port"`
	Framerate float64 `yaml:"framerate"`
}

// MIDIConfig controls the control-surface aggregation layer.
type MIDIConfig struct {
	Enabled bool `yaml:"enabled"`

	// QueueSize bounds the shared aggregation queue.
	QueueSize int `yaml:"queue_size"`

	// ReceiveTimeout is the control loop poll timeout in milliseconds.
	ReceiveTimeout int `yaml:"receive_timeout"`

	// Echo sends every received note and controller event back to the
	// device it came from, lighting pads and rings under the operator's hand.
	Echo bool `yaml:"echo"`

	Devices []MIDIDeviceConfig `yaml:"devices"`
}

// MIDIDeviceConfig names one control surface and its port pair.
type MIDIDeviceConfig struct {
	Device     string `yaml:"device"`
	InputPort  string `yaml:"input_port"`
	OutputPort string `yaml:"output_port"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TUNNELS_SECTION_KEY
// For example: TUNNELS_TRANSPORT_HOST, TUNNELS_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault is Load, except that a missing file at a path the user
// did not name explicitly yields the defaults. Environment overrides and
// validation apply either way.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return finish(Default())
		}
	}
	return Load(path)
}

// finish applies environment overrides, normalises enumerated values and
// validates.
func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	cfg.Transport.Kind = strings.ToLower(strings.TrimSpace(cfg.Transport.Kind))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
//
// The defaults are a complete, valid configuration: a renderer started
// without a config file subscribes to a local producer on port 6000.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			Kind:   TransportZMQ,
			Host:   "127.0.0.1",
			Port:   6000,
			Topic:  "tunnels",
			Buffer: 64,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "tunnels",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Receiver: ReceiverConfig{
			QueueSize:      4,
			StatsInterval:  5,
			RenderInterval: 16,
		},
		Publisher: PublisherConfig{
			Host:      "*",
			Port:      6000,
			Framerate: 30,
		},
		MIDI: MIDIConfig{
			QueueSize:      1024,
			ReceiveTimeout: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/tunnels.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TUNNELS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Transport
	if v := os.Getenv("TUNNELS_TRANSPORT_KIND"); v != "" {
		cfg.Transport.Kind = v
	}
	if v := os.Getenv("TUNNELS_TRANSPORT_HOST"); v != "" {
		cfg.Transport.Host = v
	}
	if v := os.Getenv("TUNNELS_TRANSPORT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Transport.Port = port
		}
	}
	if v := os.Getenv("TUNNELS_TRANSPORT_TOPIC"); v != "" {
		cfg.Transport.Topic = v
	}

	// MQTT
	if v := os.Getenv("TUNNELS_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TUNNELS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TUNNELS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Database
	if v := os.Getenv("TUNNELS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("TUNNELS_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("TUNNELS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	switch c.Transport.Kind {
	case TransportZMQ, TransportMQTT:
	default:
		errs = append(errs, fmt.Sprintf("transport.kind must be %q or %q", TransportZMQ, TransportMQTT))
	}
	if c.Transport.Port < 1 || c.Transport.Port > 65535 {
		errs = append(errs, "transport.port must be between 1 and 65535")
	}
	if c.Transport.Topic == "" {
		errs = append(errs, "transport.topic is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Receiver.QueueSize < 1 {
		errs = append(errs, "receiver.queue_size must be at least 1")
	}
	if c.Receiver.RenderInterval < 1 {
		errs = append(errs, "receiver.render_interval must be at least 1 (milliseconds)")
	}
	if c.Receiver.StatsInterval < 0 {
		errs = append(errs, "receiver.stats_interval must not be negative")
	}

	if c.Publisher.Framerate <= 0 {
		errs = append(errs, "publisher.framerate must be positive")
	}

	if c.MIDI.QueueSize < 1 {
		errs = append(errs, "midi.queue_size must be at least 1")
	}
	for i, d := range c.MIDI.Devices {
		if d.Device == "" || d.InputPort == "" || d.OutputPort == "" {
			errs = append(errs, fmt.Sprintf("midi.devices[%d] needs device, input_port and output_port", i))
		}
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// TransportAddr returns the zmq endpoint address, e.g. tcp://127.0.0.1:6000.
func (c *Config) TransportAddr() string {
	return fmt.Sprintf("tcp://%s:%d", c.Transport.Host, c.Transport.Port)
}

// GetReceiveTimeout returns the MIDI control loop poll timeout as a Duration.
func (c *Config) GetReceiveTimeout() time.Duration {
	return time.Duration(c.MIDI.ReceiveTimeout) * time.Millisecond
}

// GetRenderInterval returns the render loop period as a Duration.
func (c *Config) GetRenderInterval() time.Duration {
	return time.Duration(c.Receiver.RenderInterval) * time.Millisecond
}

// GetStatsInterval returns the statistics reporting period as a Duration.
func (c *Config) GetStatsInterval() time.Duration {
	return time.Duration(c.Receiver.StatsInterval) * time.Second
}

// GetFramePeriod returns the publisher frame period derived from its framerate.
func (c *Config) GetFramePeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.Publisher.Framerate)
}
