// Package transport moves packed frames from a producer to renderers.
//
// A Source delivers raw envelopes ([topic, payload]) from a pub/sub
// backend: a ZeroMQ SUB socket (DialZMQ) or MQTT subscriptions
// (SubscribeMQTT). A Receiver validates envelopes and decodes payloads
// into snapshots. Forward runs a Receiver on its own goroutine and hands
// decoded snapshots to the render loop through a bounded Queue.
//
// # Backpressure
//
// Renderers want the current show state, not a backlog. Sources keep a
// bounded buffer and discard the oldest envelope when it is full, and
// ReceiveNewest and Queue.Latest drain to the newest value. Frames that
// are skipped this way are counted in Stats.
//
// # Teardown
//
// The consumer ends a Forward worker by closing its Queue. The worker
// notices on its next push, closes the Receiver and returns. Closing the
// Receiver from outside also ends the worker once the Source has shut
// down.
//
// # Usage
//
//	rx, err := transport.Connect(ctx, "127.0.0.1", 6000, "tunnels", logger)
//	if err != nil {
//	    return err
//	}
//	frames := transport.StartForwarding(rx, 4)
//	defer frames.Close()
//
//	for range ticker.C {
//	    if snap, ok := frames.Latest(); ok {
//	        draw(snap)
//	    }
//	}
package transport
