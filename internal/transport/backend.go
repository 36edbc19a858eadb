package transport

import (
	"context"
	"fmt"

	"github.com/tunnelz/tunnels/internal/infrastructure/config"
)

// Publisher sends packed frames to subscribers.
type Publisher interface {
	Publish(topic, payload []byte) error
	Close() error
}

// NewSource opens the frame source selected by cfg.Transport.Kind.
// client is only used, and must be non-nil, for the mqtt kind.
func NewSource(ctx context.Context, cfg *config.Config, client MQTTClient, logger Logger) (Source, error) {
	t := cfg.Transport
	switch t.Kind {
	case "", config.TransportZMQ:
		src, err := DialZMQ(ctx, t.Host, t.Port, t.Topic, t.Buffer, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.TransportMQTT:
		if client == nil {
			return nil, ErrNoMQTTClient
		}
		src, err := SubscribeMQTT(client, t.Topic, byte(cfg.MQTT.QoS), t.Buffer, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
	}
}

// Open opens the configured source and wraps it in a Receiver.
func Open(ctx context.Context, cfg *config.Config, client MQTTClient, logger Logger) (*Receiver, error) {
	src, err := NewSource(ctx, cfg, client, logger)
	if err != nil {
		return nil, err
	}
	return NewReceiver(src, cfg.Transport.Topic, logger), nil
}

// NewPublisher opens the frame publisher selected by cfg.Transport.Kind.
func NewPublisher(ctx context.Context, cfg *config.Config, client MQTTClient) (Publisher, error) {
	switch cfg.Transport.Kind {
	case "", config.TransportZMQ:
		pub, err := ListenZMQ(ctx, cfg.Publisher.Host, cfg.Publisher.Port)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case config.TransportMQTT:
		if client == nil {
			return nil, ErrNoMQTTClient
		}
		return PublishMQTT(client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Transport.Kind)
	}
}
