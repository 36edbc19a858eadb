package transport

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tunnelz/tunnels/internal/snapshot"
)

// envelopeParts is the only valid envelope arity: [topic, payload].
const envelopeParts = 2

// recvStatus is the outcome of one envelope read.
type recvStatus int

const (
	recvOK recvStatus = iota
	recvEmpty
	recvInvalid
	recvClosed
)

// Stats is a point-in-time copy of a Receiver's counters.
type Stats struct {
	// Received counts well-formed envelopes taken from the source.
	Received uint64

	// Rejected counts envelopes with the wrong part count or topic.
	Rejected uint64

	// DecodeErrors counts payloads that failed to decode.
	DecodeErrors uint64

	// Drained counts valid frames skipped by ReceiveNewest.
	Drained uint64

	// Dropped counts envelopes the source discarded because its buffer was full.
	Dropped uint64
}

// Receiver validates envelopes from a Source and decodes their payloads.
//
// A Receiver has a single consumer: either the caller polling it directly
// or a Forward worker. Stats may be read from any goroutine.
type Receiver struct {
	src    Source
	prefix []byte
	logger Logger

	received     atomic.Uint64
	rejected     atomic.Uint64
	decodeErrors atomic.Uint64
	drained      atomic.Uint64
}

// NewReceiver wraps src. Envelopes whose topic does not start with topic
// are rejected.
func NewReceiver(src Source, topic string, logger Logger) *Receiver {
	return &Receiver{
		src:    src,
		prefix: []byte(topic),
		logger: loggerOrNop(logger),
	}
}

// Connect dials a ZeroMQ publisher at tcp://host:port, subscribes to the
// topic prefix and returns a Receiver over it.
func Connect(ctx context.Context, host string, port int, topic string, logger Logger) (*Receiver, error) {
	src, err := DialZMQ(ctx, host, port, topic, defaultBuffer, logger)
	if err != nil {
		return nil, err
	}
	return NewReceiver(src, topic, logger), nil
}

// ReceiveBuffer returns the payload of the next envelope.
//
// With block false it returns immediately when nothing is buffered. With
// block true it waits for an envelope or for the source to close. A
// malformed envelope is logged and reported as no message.
func (r *Receiver) ReceiveBuffer(block bool) ([]byte, bool) {
	payload, st := r.receive(block)
	return payload, st == recvOK
}

// Receive reads the next payload like ReceiveBuffer and decodes it.
// ok is false when no valid envelope was available.
func (r *Receiver) Receive(block bool) (snapshot.Snapshot, bool, error) {
	payload, ok := r.ReceiveBuffer(block)
	if !ok {
		return snapshot.Snapshot{}, false, nil
	}
	return r.decode(payload)
}

// ReceiveNewest drains every buffered envelope without blocking and
// decodes only the last valid payload.
//
// It returns ok=false with a nil error when nothing valid was buffered.
// A decode failure of the newest payload is returned; earlier payloads
// are never decoded.
func (r *Receiver) ReceiveNewest() (snapshot.Snapshot, bool, error) {
	var (
		newest []byte
		valid  uint64
	)

drain:
	for {
		payload, st := r.receive(false)
		switch st {
		case recvOK:
			newest = payload
			valid++
		case recvInvalid:
			continue
		default:
			break drain
		}
	}

	if valid == 0 {
		return snapshot.Snapshot{}, false, nil
	}
	if valid > 1 {
		r.drained.Add(valid - 1)
	}
	return r.decode(newest)
}

// Stats returns a copy of the receiver's counters.
func (r *Receiver) Stats() Stats {
	s := Stats{
		Received:     r.received.Load(),
		Rejected:     r.rejected.Load(),
		DecodeErrors: r.decodeErrors.Load(),
		Drained:      r.drained.Load(),
	}
	if dc, ok := r.src.(dropCounter); ok {
		s.Dropped = dc.Dropped()
	}
	return s
}

// Close closes the underlying source.
func (r *Receiver) Close() error {
	return r.src.Close()
}

func (r *Receiver) decode(payload []byte) (snapshot.Snapshot, bool, error) {
	snap, err := snapshot.Decode(payload)
	if err != nil {
		r.decodeErrors.Add(1)
		return snapshot.Snapshot{}, false, err
	}
	return snap, true, nil
}

// receive reads one envelope and classifies it.
func (r *Receiver) receive(block bool) ([]byte, recvStatus) {
	var (
		env  Envelope
		open bool
	)
	if block {
		env, open = <-r.src.Messages()
	} else {
		select {
		case env, open = <-r.src.Messages():
		default:
			return nil, recvEmpty
		}
	}
	if !open {
		return nil, recvClosed
	}

	payload, err := r.unwrap(env)
	if err != nil {
		r.rejected.Add(1)
		r.logger.Warn("rejecting envelope", "error", err)
		return nil, recvInvalid
	}
	r.received.Add(1)
	return payload, recvOK
}

// unwrap checks the envelope shape and returns its payload.
func (r *Receiver) unwrap(env Envelope) ([]byte, error) {
	if len(env) != envelopeParts {
		return nil, fmt.Errorf("envelope has %d parts, want %d", len(env), envelopeParts)
	}
	if !bytes.HasPrefix(env[0], r.prefix) {
		return nil, fmt.Errorf("envelope topic %q does not match subscription %q", env[0], r.prefix)
	}
	return env[1], nil
}
