//go:build integration

package influxdb

import (
	"context"
	"testing"
	"time"

	"github.com/tunnelz/tunnels/internal/infrastructure/config"
)

// testConfig matches the local development InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "tunnels-dev-token",
		Org:           "tunnels",
		Bucket:        "telemetry",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func TestIntegration_WriteAndFlush(t *testing.T) {
	c, err := Connect(testConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	defer c.Close()

	writeErrs := make(chan error, 4)
	c.SetOnError(func(err error) { writeErrs <- err })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	c.WriteFrameStats(FrameStats{Client: "it", Transport: "zmq", FPS: 60, Received: 60})
	c.WriteControlStats(ControlStats{Device: "apc40", Events: 3})
	c.Flush()

	select {
	case err := <-writeErrs:
		t.Errorf("write error = %v", err)
	case <-time.After(500 * time.Millisecond):
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}
