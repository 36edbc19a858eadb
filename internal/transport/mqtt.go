package transport

import (
	"fmt"

	"github.com/tunnelz/tunnels/internal/infrastructure/mqtt"
)

// MQTTClient is the subset of *mqtt.Client used by the MQTT backend.
type MQTTClient interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// frameQoS is used for frame publishes. A lost frame is superseded by the next.
const frameQoS = 0

// MQTTSource is a Source fed by MQTT subscriptions.
type MQTTSource struct {
	client  MQTTClient
	filters []string
	box     *mailbox
	logger  Logger
}

// SubscribeMQTT subscribes to topic and every topic below it and turns
// each message into an envelope [topic, payload].
func SubscribeMQTT(client MQTTClient, topic string, qos byte, buffer int, logger Logger) (*MQTTSource, error) {
	s := &MQTTSource{
		client: client,
		box:    newMailbox(buffer),
		logger: loggerOrNop(logger),
	}

	handler := func(t string, payload []byte) error {
		s.box.offer(Envelope{[]byte(t), payload})
		return nil
	}

	for _, filter := range (mqtt.Topics{}).FrameFilters(topic) {
		if err := client.Subscribe(filter, qos, handler); err != nil {
			s.unsubscribe()
			s.box.close()
			return nil, fmt.Errorf("%w: %s: %w", ErrSubscribe, filter, err)
		}
		s.filters = append(s.filters, filter)
	}

	s.logger.Info("subscribed to frame topic", "topic", topic, "qos", qos)
	return s, nil
}

// Messages implements Source.
func (s *MQTTSource) Messages() <-chan Envelope {
	return s.box.messages()
}

// Dropped returns the number of envelopes discarded on overflow.
func (s *MQTTSource) Dropped() uint64 {
	return s.box.droppedCount()
}

// Close removes the subscriptions and closes the envelope channel.
// The MQTT client itself stays connected; its owner closes it.
func (s *MQTTSource) Close() error {
	s.unsubscribe()
	s.box.close()
	return nil
}

func (s *MQTTSource) unsubscribe() {
	for _, filter := range s.filters {
		if err := s.client.Unsubscribe(filter); err != nil {
			s.logger.Warn("mqtt unsubscribe failed", "topic", filter, "error", err)
		}
	}
	s.filters = nil
}

// MQTTPublisher publishes frames through an MQTT client.
type MQTTPublisher struct {
	client MQTTClient
}

// PublishMQTT returns a Publisher that sends frames at QoS 0, not retained.
func PublishMQTT(client MQTTClient) *MQTTPublisher {
	return &MQTTPublisher{client: client}
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(topic, payload []byte) error {
	if err := p.client.Publish(string(topic), payload, frameQoS, false); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

// Close is a no-op; the MQTT client is owned by the caller.
func (p *MQTTPublisher) Close() error {
	return nil
}
