package transport

import "sync"

// Queue is a bounded hand-off queue with one producer and one consumer.
//
// The producer calls Push and, when it will send nothing more, CloseSend.
// The consumer reads with TryRecv, Latest or by ranging over C, and calls
// Close when it no longer wants values. After Close every Push fails with
// ErrQueueClosed, which is how the producer learns to stop.
type Queue[T any] struct {
	ch   chan T
	done chan struct{}

	closeOnce sync.Once
	sendOnce  sync.Once
}

// NewQueue creates a queue holding at most size values (minimum 1).
func NewQueue[T any](size int) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{
		ch:   make(chan T, size),
		done: make(chan struct{}),
	}
}

// Push blocks until v is queued or the consumer closes the queue.
func (q *Queue[T]) Push(v T) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- v:
		return nil
	case <-q.done:
		return ErrQueueClosed
	}
}

// CloseSend marks the end of the stream. It must be called by the producer,
// never concurrently with Push. Ranging over C ends once it is drained.
func (q *Queue[T]) CloseSend() {
	q.sendOnce.Do(func() { close(q.ch) })
}

// TryRecv returns the next value without blocking.
func (q *Queue[T]) TryRecv() (T, bool) {
	select {
	case v, ok := <-q.ch:
		return v, ok
	default:
		var zero T
		return zero, false
	}
}

// Latest drains the queue and returns the newest value, if any.
func (q *Queue[T]) Latest() (T, bool) {
	var (
		latest T
		found  bool
	)
	for {
		v, ok := q.TryRecv()
		if !ok {
			return latest, found
		}
		latest, found = v, true
	}
}

// C returns the receive side for iteration.
func (q *Queue[T]) C() <-chan T {
	return q.ch
}

// Done is closed once the consumer has closed the queue.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.done
}

// Close drops the consumer end. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
