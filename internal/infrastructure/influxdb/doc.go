// Package influxdb writes Tunnels telemetry to InfluxDB v2.
//
// Two measurements are recorded:
//   - frames: per-renderer receive statistics (fps, drops, decode errors)
//   - control_events: per-device control event counts
//
// Writes are batched and never block the caller; a disabled or closed
// client silently discards points.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteFrameStats(influxdb.FrameStats{Client: id, FPS: 59.8})
package influxdb
