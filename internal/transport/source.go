package transport

import (
	"sync"
	"sync/atomic"
)

// Envelope is one pub/sub message as delivered by a backend.
// A well-formed envelope has exactly two parts: topic and payload.
type Envelope [][]byte

// Source delivers envelopes from a pub/sub backend.
//
// Messages returns the same channel on every call. The channel is closed
// once the source has shut down and every buffered envelope was read.
type Source interface {
	Messages() <-chan Envelope
	Close() error
}

// dropCounter is implemented by sources that discard envelopes on overflow.
type dropCounter interface {
	Dropped() uint64
}

// Logger is the logging interface used by transport components.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// defaultBuffer is the mailbox size used when a caller passes size < 1.
const defaultBuffer = 64

// mailbox is the bounded buffer between a backend's delivery goroutine(s)
// and the Receiver. When full, the oldest envelope is discarded.
type mailbox struct {
	ch      chan Envelope
	mu      sync.Mutex
	closed  bool
	dropped atomic.Uint64
}

func newMailbox(size int) *mailbox {
	if size < 1 {
		size = defaultBuffer
	}
	return &mailbox{ch: make(chan Envelope, size)}
}

// offer enqueues env without blocking. It reports false once the mailbox is closed.
func (m *mailbox) offer(env Envelope) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	for {
		select {
		case m.ch <- env:
			return true
		default:
		}
		// Full: make room by discarding the oldest envelope.
		select {
		case <-m.ch:
			m.dropped.Add(1)
		default:
		}
	}
}

// close stops further offers and closes the channel. Safe to call twice.
func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	close(m.ch)
}

func (m *mailbox) messages() <-chan Envelope {
	return m.ch
}

func (m *mailbox) droppedCount() uint64 {
	return m.dropped.Load()
}
