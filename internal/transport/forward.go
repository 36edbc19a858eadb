package transport

import (
	"github.com/tunnelz/tunnels/internal/snapshot"
)

// Forward runs the receive loop of r until the consumer closes q.
//
// Each iteration blocks for the next payload, decodes it and pushes the
// snapshot. A payload that fails to decode is logged and skipped. The
// loop returns when Push fails, or when the source has shut down and no
// message can arrive any more. Forward owns r and closes it on return.
func Forward(r *Receiver, q *Queue[snapshot.Snapshot]) {
	defer q.CloseSend()
	defer func() {
		if err := r.Close(); err != nil {
			r.logger.Warn("closing receiver", "error", err)
		}
	}()

	for {
		payload, st := r.receive(true)
		switch st {
		case recvClosed:
			r.logger.Info("frame source closed, stopping receiver")
			return
		case recvOK:
		default:
			continue
		}

		snap, ok, err := r.decode(payload)
		if !ok {
			r.logger.Warn("dropping undecodable frame", "error", err, "bytes", len(payload))
			continue
		}

		if err := q.Push(snap); err != nil {
			r.logger.Debug("frame consumer gone, stopping receiver", "frame", snap.FrameNumber)
			return
		}
	}
}

// StartForwarding creates a queue of the given size and runs Forward on a
// new goroutine.
func StartForwarding(r *Receiver, size int) *Queue[snapshot.Snapshot] {
	q := NewQueue[snapshot.Snapshot](size)
	go Forward(r, q)
	return q
}
