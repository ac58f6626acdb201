package waitlist

import "context"

// QueueService publishes messages to a topic
type QueueService interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Close() error
}
