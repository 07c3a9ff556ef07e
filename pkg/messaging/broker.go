package messaging

import "context"

// Broker is the transport for outbox events: the API writes rows, the
// worker publishes them here, subscribers consume the channel.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
