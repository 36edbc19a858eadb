package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/tunnelz/tunnels/internal/control"
	"github.com/tunnelz/tunnels/internal/devicestore"
	"github.com/tunnelz/tunnels/internal/infrastructure/config"
	"github.com/tunnelz/tunnels/internal/infrastructure/influxdb"
	"github.com/tunnelz/tunnels/internal/infrastructure/logging"
)

// allDevices tags the aggregate telemetry point.
const allDevices = "all"

// minReceiveTimeout keeps the loop from spinning when the config asks to poll.
const minReceiveTimeout = time.Millisecond

var errNoDevices = errors.New("no control devices could be opened")

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the control surface loop",
		Long: "Open every configured and registered control surface, initialise it, and " +
			"process its events until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.MIDI.Enabled {
				return fmt.Errorf("control surfaces are disabled; set midi.enabled in the config")
			}
			return runControl(cmd.Context(), cfg, ctx.logger(cfg))
		},
	}
}

func runControl(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	drv, err := control.OpenDriver()
	if err != nil {
		return err
	}
	defer drv.Close() //nolint:errcheck // Process is exiting

	mgr := control.NewManager(drv, control.Options{
		QueueSize: cfg.MIDI.QueueSize,
		Logger:    log.With("component", "control"),
	})
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			log.Error("error closing control devices", "error", closeErr)
		}
	}()

	for _, spec := range deviceSpecs(ctx, cfg, log) {
		if err := mgr.AddDevice(spec); err != nil {
			log.Error("control device unavailable",
				"device", spec.Device.String(),
				"input", spec.InputPort,
				"output", spec.OutputPort,
				"error", err,
			)
		}
	}
	if len(mgr.Devices()) == 0 {
		return errNoDevices
	}

	loop := &controlLoop{
		mgr:    mgr,
		echo:   cfg.MIDI.Echo,
		logger: log,
		counts: make(map[control.Device]uint64),
	}
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer influxClient.Close() //nolint:errcheck // Close flushes and never fails
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		loop.telemetry = influxClient
	}

	log.Info("control loop running", "devices", len(mgr.Devices()), "echo", cfg.MIDI.Echo)
	loop.run(ctx, cfg.GetReceiveTimeout(), cfg.GetStatsInterval())
	log.Info("control loop stopped")
	return nil
}

// deviceSpecs merges the configured devices with the registry. Invalid
// configured entries and an unreadable registry are logged and skipped.
func deviceSpecs(ctx context.Context, cfg *config.Config, log *logging.Logger) []control.DeviceSpec {
	var configured []control.DeviceSpec
	for _, d := range cfg.MIDI.Devices {
		device, err := control.ParseDevice(d.Device)
		if err != nil {
			log.Warn("skipping configured device", "device", d.Device, "error", err)
			continue
		}
		configured = append(configured, control.DeviceSpec{
			Device:     device,
			InputPort:  d.InputPort,
			OutputPort: d.OutputPort,
		})
	}

	var stored []devicestore.Record
	err := withStore(ctx, cfg, func(repo devicestore.Repository) error {
		var err error
		stored, err = repo.List(ctx)
		return err
	})
	if err != nil {
		log.Warn("device registry unavailable, using configured devices only", "error", err)
	}
	return devicestore.Merge(configured, stored)
}

type eventSource interface {
	Receive(timeout time.Duration) (control.Tagged, bool)
	Send(device control.Device, ev control.Event)
	Dropped() uint64
}

type controlTelemetry interface {
	WriteControlStats(influxdb.ControlStats)
}

// controlLoop drains control events, echoes them when enabled and
// reports per-device counts.
type controlLoop struct {
	mgr       eventSource
	echo      bool
	logger    *logging.Logger
	telemetry controlTelemetry

	counts      map[control.Device]uint64
	lastDropped uint64
}

func (l *controlLoop) run(ctx context.Context, timeout, statsInterval time.Duration) {
	timeout = max(timeout, minReceiveTimeout)
	nextReport := time.Now().Add(statsInterval)
	for ctx.Err() == nil {
		if ev, ok := l.mgr.Receive(timeout); ok {
			l.handle(ev)
		}
		if statsInterval > 0 && !time.Now().Before(nextReport) {
			l.report()
			nextReport = time.Now().Add(statsInterval)
		}
	}
}

func (l *controlLoop) handle(t control.Tagged) {
	l.counts[t.Device]++
	l.logger.Debug("control event",
		"device", t.Device.String(),
		"type", t.Event.EventType.String(),
		"channel", t.Event.Channel,
		"control", t.Event.Control,
		"value", t.Event.Value,
	)
	if l.echo {
		l.mgr.Send(t.Device, t.Event)
	}
}

// report logs and writes the counts since the previous report.
func (l *controlLoop) report() []influxdb.ControlStats {
	devices := make([]control.Device, 0, len(l.counts))
	for d := range l.counts {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i] < devices[j] })

	var total uint64
	points := make([]influxdb.ControlStats, 0, len(devices)+1)
	for _, d := range devices {
		total += l.counts[d]
		points = append(points, influxdb.ControlStats{Device: d.String(), Events: l.counts[d]})
	}
	dropped := l.mgr.Dropped()
	points = append(points, influxdb.ControlStats{
		Device:  allDevices,
		Events:  total,
		Dropped: dropped - l.lastDropped,
	})
	l.lastDropped = dropped
	clear(l.counts)

	l.logger.Info("control statistics", "events", total, "dropped", points[len(points)-1].Dropped)
	if l.telemetry != nil {
		for _, p := range points {
			l.telemetry.WriteControlStats(p)
		}
	}
	return points
}
