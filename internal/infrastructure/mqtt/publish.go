package mqtt

import "fmt"

// maxPayloadSize caps a single message at 1 MiB, the default limit of
// common brokers. A dense frame is far below it.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits for the broker's ack (or the
// local write at QoS 0).
//
// Frames go out at QoS 0 and never retained, so a late subscriber waits
// for the next frame rather than rendering a stale one.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
