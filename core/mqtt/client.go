package mqtt

import "context"

// Publisher sends telemetry payloads to a topic. Delivery is fire-and-forget:
// a nil error only means the message was handed to the transport.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}
