package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tunnelz/tunnels/internal/infrastructure/influxdb"
	"github.com/tunnelz/tunnels/internal/snapshot"
	"github.com/tunnelz/tunnels/internal/transport"
)

type fakeQueue struct {
	mu     sync.Mutex
	frames []snapshot.Snapshot
}

func (q *fakeQueue) push(s snapshot.Snapshot) {
	q.mu.Lock()
	q.frames = append(q.frames, s)
	q.mu.Unlock()
}

func (q *fakeQueue) Latest() (snapshot.Snapshot, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return snapshot.Snapshot{}, false
	}
	last := q.frames[len(q.frames)-1]
	q.frames = nil
	return last, true
}

type fixedStats struct{ s transport.Stats }

func (f fixedStats) Stats() transport.Stats { return f.s }

type recordingRenderer struct {
	mu     sync.Mutex
	frames []uint64
}

func (r *recordingRenderer) Render(s snapshot.Snapshot) {
	r.mu.Lock()
	r.frames = append(r.frames, s.FrameNumber)
	r.mu.Unlock()
}

func (r *recordingRenderer) rendered() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.frames...)
}

type recordingTelemetry struct {
	mu     sync.Mutex
	points []influxdb.FrameStats
}

func (t *recordingTelemetry) WriteFrameStats(p influxdb.FrameStats) {
	t.mu.Lock()
	t.points = append(t.points, p)
	t.mu.Unlock()
}

func (t *recordingTelemetry) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.points)
}

type countingLogger struct {
	mu    sync.Mutex
	warns int
}

func (l *countingLogger) Debug(string, ...any) {}
func (l *countingLogger) Info(string, ...any)  {}
func (l *countingLogger) Warn(string, ...any) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}

func frameWithArcs(n uint64, arcs int) snapshot.Snapshot {
	layer := make(snapshot.Layer, arcs)
	return snapshot.Snapshot{FrameNumber: n, Layers: snapshot.Layers{layer}}
}

func TestRenderLoop_RendersNewestOnly(t *testing.T) {
	q := &fakeQueue{}
	r := &recordingRenderer{}
	l := &renderLoop{frames: q, renderer: r, reporter: newReporter("c", "zmq")}

	if l.renderOnce() {
		t.Fatal("renderOnce() = true on an empty queue")
	}

	q.push(frameWithArcs(1, 1))
	q.push(frameWithArcs(2, 1))
	q.push(frameWithArcs(3, 4))
	if !l.renderOnce() {
		t.Fatal("renderOnce() = false with queued frames")
	}

	if got := r.rendered(); len(got) != 1 || got[0] != 3 {
		t.Errorf("rendered %v, want [3]", got)
	}
	if l.reporter.segments != 4 {
		t.Errorf("reporter segments = %d, want 4", l.reporter.segments)
	}
}

func TestRenderLoop_RunUntilCancelled(t *testing.T) {
	q := &fakeQueue{}
	q.push(frameWithArcs(9, 2))
	r := &recordingRenderer{}
	tel := &recordingTelemetry{}

	l := &renderLoop{
		frames:        q,
		stats:         fixedStats{},
		renderer:      r,
		reporter:      newReporter("c", "zmq"),
		telemetry:     tel,
		logger:        &countingLogger{},
		renderEvery:   time.Millisecond,
		statsInterval: 5 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for (len(r.rendered()) == 0 || tel.count() == 0) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if got := r.rendered(); len(got) != 1 || got[0] != 9 {
		t.Errorf("rendered %v, want [9]", got)
	}
	if tel.count() == 0 {
		t.Error("no statistics written")
	}
}

func TestReporter_Sample(t *testing.T) {
	start := time.Unix(100, 0)
	rep := newReporter("renderer-1", "mqtt")
	rep.reset(start, transport.Stats{Received: 10, Rejected: 1, Dropped: 2})

	for i := uint64(0); i < 30; i++ {
		rep.rendered(frameWithArcs(i, 5))
	}

	got := rep.sample(start.Add(500*time.Millisecond), transport.Stats{
		Received: 45, Rejected: 1, DecodeErrors: 3, Drained: 4, Dropped: 7,
	})
	want := influxdb.FrameStats{
		Client: "renderer-1", Transport: "mqtt",
		FPS: 60, Received: 35, Rejected: 0, DecodeErrors: 3, Drained: 4, Dropped: 5, Segments: 5,
	}
	if got != want {
		t.Errorf("sample() = %+v, want %+v", got, want)
	}

	// The next interval starts from the sampled counters.
	next := rep.sample(start.Add(time.Second), transport.Stats{
		Received: 45, DecodeErrors: 3, Drained: 4, Dropped: 7, Rejected: 1,
	})
	if next.FPS != 0 || next.Received != 0 || next.Dropped != 0 {
		t.Errorf("second sample() = %+v, want zero deltas", next)
	}
}

func TestLogRenderer_WarnsOnRegression(t *testing.T) {
	logger := &countingLogger{}
	r := newLogRenderer(logger)

	for _, n := range []uint64{1, 2, 2, 3, 0, 1} {
		r.Render(snapshot.Snapshot{FrameNumber: n})
	}
	if logger.warns != 1 {
		t.Errorf("warnings = %d, want 1", logger.warns)
	}
}
