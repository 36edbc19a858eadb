package main

import (
	"context"
	"time"

	"github.com/tunnelz/tunnels/internal/infrastructure/influxdb"
	"github.com/tunnelz/tunnels/internal/snapshot"
	"github.com/tunnelz/tunnels/internal/transport"
)

// Logger is the logging subset used by the render loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// frameQueue is the consumer side of the forwarding queue.
type frameQueue interface {
	Latest() (snapshot.Snapshot, bool)
}

type statsSource interface {
	Stats() transport.Stats
}

type telemetryWriter interface {
	WriteFrameStats(influxdb.FrameStats)
}

// Renderer draws one frame.
type Renderer interface {
	Render(s snapshot.Snapshot)
}

// renderLoop takes the newest frame on every tick and draws it.
type renderLoop struct {
	frames    frameQueue
	stats     statsSource
	renderer  Renderer
	reporter  *reporter
	telemetry telemetryWriter
	logger    Logger

	renderEvery   time.Duration
	statsInterval time.Duration
}

func (l *renderLoop) run(ctx context.Context) {
	tick := time.NewTicker(l.renderEvery)
	defer tick.Stop()

	var report <-chan time.Time
	if l.statsInterval > 0 {
		t := time.NewTicker(l.statsInterval)
		defer t.Stop()
		report = t.C
	}

	l.reporter.reset(time.Now(), l.stats.Stats())
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			l.renderOnce()
		case now := <-report:
			l.reportOnce(now)
		}
	}
}

// renderOnce draws the newest queued frame, if any. Older queued frames
// are skipped.
func (l *renderLoop) renderOnce() bool {
	frame, ok := l.frames.Latest()
	if !ok {
		return false
	}
	l.renderer.Render(frame)
	l.reporter.rendered(frame)
	return true
}

func (l *renderLoop) reportOnce(now time.Time) {
	point := l.reporter.sample(now, l.stats.Stats())
	l.logger.Info("frame statistics",
		"fps", point.FPS,
		"received", point.Received,
		"rejected", point.Rejected,
		"decode_errors", point.DecodeErrors,
		"drained", point.Drained,
		"dropped", point.Dropped,
		"segments", point.Segments,
	)
	if l.telemetry != nil {
		l.telemetry.WriteFrameStats(point)
	}
}

// logRenderer stands in for a display: it traces each frame and warns
// when the producer's frame numbers go backwards, which happens when the
// show restarts.
type logRenderer struct {
	logger Logger
	last   uint64
	seen   bool
}

func newLogRenderer(logger Logger) *logRenderer {
	return &logRenderer{logger: logger}
}

func (r *logRenderer) Render(s snapshot.Snapshot) {
	if r.seen && s.FrameNumber < r.last {
		r.logger.Warn("frame number went backwards", "previous", r.last, "frame", s.FrameNumber)
	}
	r.last, r.seen = s.FrameNumber, true

	r.logger.Debug("render",
		"frame", s.FrameNumber,
		"time_ms", s.Time,
		"layers", len(s.Layers),
		"segments", s.SegmentCount(),
	)
}

// reporter turns receiver counters and rendered frames into per-interval
// statistics.
type reporter struct {
	client    string
	transport string

	since    time.Time
	frames   uint64
	segments int
	base     transport.Stats
}

func newReporter(client, kind string) *reporter {
	return &reporter{client: client, transport: kind}
}

func (r *reporter) reset(now time.Time, base transport.Stats) {
	r.since, r.base, r.frames = now, base, 0
}

func (r *reporter) rendered(s snapshot.Snapshot) {
	r.frames++
	r.segments = s.SegmentCount()
}

// sample returns the statistics since the previous sample and starts a
// new interval. Counters are deltas; Segments is the last frame's size.
func (r *reporter) sample(now time.Time, cur transport.Stats) influxdb.FrameStats {
	var fps float64
	if elapsed := now.Sub(r.since).Seconds(); elapsed > 0 {
		fps = float64(r.frames) / elapsed
	}

	point := influxdb.FrameStats{
		Client:       r.client,
		Transport:    r.transport,
		FPS:          fps,
		Received:     cur.Received - r.base.Received,
		Rejected:     cur.Rejected - r.base.Rejected,
		DecodeErrors: cur.DecodeErrors - r.base.DecodeErrors,
		Drained:      cur.Drained - r.base.Drained,
		Dropped:      cur.Dropped - r.base.Dropped,
		Segments:     r.segments,
	}
	r.reset(now, cur)
	return point
}
