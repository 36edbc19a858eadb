package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementFrames  = "frames"
	measurementControl = "control_events"
)

// FrameStats is one reporting interval of the renderer's receive path.
type FrameStats struct {
	// Client identifies the renderer, e.g. its MQTT client ID or hostname.
	Client string

	// Transport is the configured transport kind.
	Transport string

	FPS          float64
	Received     uint64
	Rejected     uint64
	DecodeErrors uint64
	Drained      uint64
	Dropped      uint64
	Segments     int
}

// ControlStats is one reporting interval of a control device.
type ControlStats struct {
	Device  string
	Events  uint64
	Dropped uint64
}

// WriteFrameStats records renderer frame statistics.
func (c *Client) WriteFrameStats(s FrameStats) {
	c.writePoint(framePoint(s, time.Now()))
}

// WriteControlStats records control event counts for one device.
func (c *Client) WriteControlStats(s ControlStats) {
	c.writePoint(controlPoint(s, time.Now()))
}

func framePoint(s FrameStats, at time.Time) *write.Point {
	return write.NewPoint(
		measurementFrames,
		map[string]string{
			"client":    s.Client,
			"transport": s.Transport,
		},
		map[string]interface{}{
			"fps":           s.FPS,
			"received":      s.Received,
			"rejected":      s.Rejected,
			"decode_errors": s.DecodeErrors,
			"drained":       s.Drained,
			"dropped":       s.Dropped,
			"segments":      s.Segments,
		},
		at,
	)
}

func controlPoint(s ControlStats, at time.Time) *write.Point {
	return write.NewPoint(
		measurementControl,
		map[string]string{"device": s.Device},
		map[string]interface{}{
			"events":  s.Events,
			"dropped": s.Dropped,
		},
		at,
	)
}
