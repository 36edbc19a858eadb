package influxdb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/tunnelz/tunnels/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false, URL: "http://127.0.0.1:8086"})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: "http://127.0.0.1:1"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_NilAndClosedAreInert(t *testing.T) {
	var nilClient *Client
	if nilClient.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}

	c := &Client{}
	c.WriteFrameStats(FrameStats{Client: "r1"})
	c.WriteControlStats(ControlStats{Device: "apc40"})
	c.Flush()
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFramePoint(t *testing.T) {
	at := time.Unix(1700000000, 0)
	p := framePoint(FrameStats{
		Client:       "renderer-1",
		Transport:    "zmq",
		FPS:          59.5,
		Received:     120,
		Rejected:     1,
		DecodeErrors: 2,
		Drained:      3,
		Dropped:      4,
		Segments:     48,
	}, at)

	line := write.PointToLineProtocol(p, time.Second)
	for _, want := range []string{
		"frames,client=renderer-1,transport=zmq ",
		"fps=59.5",
		"received=120u",
		"rejected=1u",
		"decode_errors=2u",
		"drained=3u",
		"dropped=4u",
		"segments=48i",
		" 1700000000",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol %q missing %q", line, want)
		}
	}
}

func TestControlPoint(t *testing.T) {
	p := controlPoint(ControlStats{Device: "apc40", Events: 17, Dropped: 0}, time.Unix(10, 0))

	if p.Name() != measurementControl {
		t.Errorf("Name() = %q, want %q", p.Name(), measurementControl)
	}
	line := write.PointToLineProtocol(p, time.Second)
	for _, want := range []string{"control_events,device=apc40 ", "events=17u", "dropped=0u", " 10"} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol %q missing %q", line, want)
		}
	}
}

func TestHandleWriteErrors_WrapsAndDelivers(t *testing.T) {
	c := &Client{}
	got := make(chan error, 1)
	c.SetOnError(func(err error) { got <- err })

	errs := make(chan error, 1)
	errs <- errors.New("bucket not found")
	close(errs)
	c.handleWriteErrors(errs)

	select {
	case err := <-got:
		if !errors.Is(err, ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	default:
		t.Fatal("callback not invoked")
	}
}
