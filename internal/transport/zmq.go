package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

const (
	// zmqRecvRetryDelay spaces out retries after a failed receive.
	zmqRecvRetryDelay = 100 * time.Millisecond

	// zmqDialRetry spaces out connection attempts to a missing publisher.
	zmqDialRetry = 250 * time.Millisecond

	// zmqDialForever disables the dial retry limit.
	zmqDialForever = -1
)

// ZMQSource is a Source backed by a ZeroMQ SUB socket.
type ZMQSource struct {
	sock     zmq4.Socket
	box      *mailbox
	cancel   context.CancelFunc
	endpoint string
	logger   Logger

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// DialZMQ connects a SUB socket to tcp://host:port and subscribes to the
// topic prefix. Up to buffer envelopes are held for the reader; older ones
// are discarded first.
//
// A publisher that is not listening yet is waited for until ctx ends, and
// a publisher that restarts is reconnected to, so a show can be stopped
// and started under running renderers.
func DialZMQ(ctx context.Context, host string, port int, topic string, buffer int, logger Logger) (*ZMQSource, error) {
	ctx, cancel := context.WithCancel(ctx)
	sock := zmq4.NewSub(ctx,
		zmq4.WithAutomaticReconnect(true),
		zmq4.WithDialerMaxRetries(zmqDialForever),
		zmq4.WithDialerRetry(zmqDialRetry),
	)
	endpoint := fmt.Sprintf("tcp://%s:%d", host, port)

	loggerOrNop(logger).Info("connecting to frame publisher", "endpoint", endpoint)
	if err := sock.Dial(endpoint); err != nil {
		cancel()
		_ = sock.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, endpoint, err)
	}
	if err := sock.SetOption(zmq4.OptionSubscribe, topic); err != nil {
		cancel()
		_ = sock.Close()
		return nil, fmt.Errorf("%w: topic %q: %w", ErrSubscribe, topic, err)
	}

	s := &ZMQSource{
		sock:     sock,
		box:      newMailbox(buffer),
		cancel:   cancel,
		endpoint: endpoint,
		logger:   loggerOrNop(logger),
		done:     make(chan struct{}),
	}
	go s.run(ctx)

	s.logger.Info("subscribed to frame publisher", "endpoint", endpoint, "topic", topic)
	return s, nil
}

// run copies messages from the socket into the mailbox until ctx ends.
func (s *ZMQSource) run(ctx context.Context) {
	defer close(s.done)
	defer s.box.close()

	for {
		msg, err := s.sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("zmq receive failed", "endpoint", s.endpoint, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(zmqRecvRetryDelay):
			}
			continue
		}
		s.box.offer(Envelope(msg.Frames))
	}
}

// Messages implements Source.
func (s *ZMQSource) Messages() <-chan Envelope {
	return s.box.messages()
}

// Dropped returns the number of envelopes discarded on overflow.
func (s *ZMQSource) Dropped() uint64 {
	return s.box.droppedCount()
}

// Close stops the receive goroutine and closes the socket.
func (s *ZMQSource) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.sock.Close()
		<-s.done
	})
	return s.closeErr
}

// ZMQPublisher is a Publisher backed by a ZeroMQ PUB socket.
type ZMQPublisher struct {
	sock   zmq4.Socket
	cancel context.CancelFunc
	mu     sync.Mutex
}

// ListenZMQ binds a PUB socket on tcp://host:port. Use host "*" to bind
// every interface and port 0 to pick a free port (see Addr).
func ListenZMQ(ctx context.Context, host string, port int) (*ZMQPublisher, error) {
	ctx, cancel := context.WithCancel(ctx)
	sock := zmq4.NewPub(ctx)
	endpoint := fmt.Sprintf("tcp://%s:%d", host, port)

	if err := sock.Listen(endpoint); err != nil {
		cancel()
		_ = sock.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrListen, endpoint, err)
	}
	return &ZMQPublisher{sock: sock, cancel: cancel}, nil
}

// Publish sends a two-part [topic, payload] message.
func (p *ZMQPublisher) Publish(topic, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.sock.Send(zmq4.NewMsgFrom(topic, payload)); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

// Addr returns the bound address.
func (p *ZMQPublisher) Addr() net.Addr {
	return p.sock.Addr()
}

// Close closes the socket.
func (p *ZMQPublisher) Close() error {
	p.cancel()
	return p.sock.Close()
}
