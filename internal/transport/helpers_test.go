package transport

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tunnelz/tunnels/internal/snapshot"
)

const testTopic = "tunnels"

// fakeSource is a Source fed directly by the test.
type fakeSource struct {
	ch     chan Envelope
	once   sync.Once
	closed atomic.Bool
}

func newFakeSource(envs ...Envelope) *fakeSource {
	f := &fakeSource{ch: make(chan Envelope, len(envs)+16)}
	for _, env := range envs {
		f.ch <- env
	}
	return f
}

func (f *fakeSource) Messages() <-chan Envelope { return f.ch }

func (f *fakeSource) Close() error {
	f.once.Do(func() {
		f.closed.Store(true)
		close(f.ch)
	})
	return nil
}

// captureLogger counts log calls by level.
type captureLogger struct {
	mu    sync.Mutex
	warns []string
	infos int
}

func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Info(string, ...any) {
	l.mu.Lock()
	l.infos++
	l.mu.Unlock()
}
func (l *captureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
func (l *captureLogger) Error(string, ...any) {}

func (l *captureLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

// frame builds a small snapshot with the given frame number.
func frame(n uint64) snapshot.Snapshot {
	return snapshot.Snapshot{
		FrameNumber: n,
		Time:        n * 33,
		Layers: snapshot.Layers{
			{snapshot.ArcSegment{Level: 1, Thickness: 0.1, Hue: float64(n) / 10, Sat: 1, Val: 1, RadX: 0.5, RadY: 0.5, Stop: 3}},
			{},
		},
	}
}

func packed(t *testing.T, s snapshot.Snapshot) []byte {
	t.Helper()
	buf, err := snapshot.Encode(s)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return buf
}

func envelope(t *testing.T, s snapshot.Snapshot) Envelope {
	t.Helper()
	return Envelope{[]byte(testTopic), packed(t, s)}
}

// recvWithin reads one value from ch or fails the test.
func recvWithin[T any](t *testing.T, ch <-chan T, d time.Duration) (T, bool) {
	t.Helper()
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(d):
		t.Fatalf("nothing received within %v", d)
		var zero T
		return zero, false
	}
}
