// Package rabbitmq publishes waitlist events to RabbitMQ.
package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel used by QueueService
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// QueueService publishes messages on durable queues named after the topic
type QueueService struct {
	conn *amqp.Connection
	ch   Channel
}

// NewQueueService dials url and opens a channel
func NewQueueService(url string) (*QueueService, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &QueueService{
		conn: conn,
		ch:   ch,
	}, nil
}

// NewQueueServiceWithChannel wraps an already opened channel
func NewQueueServiceWithChannel(ch Channel) *QueueService {
	return &QueueService{
		ch: ch,
	}
}

// Publish declares the topic queue and sends body as a persistent JSON message
func (s *QueueService) Publish(ctx context.Context, topic string, body []byte) error {
	q, err := s.ch.QueueDeclare(
		topic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}

	err = s.ch.PublishWithContext(ctx,
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	return nil
}

// Close closes the channel and the connection
func (s *QueueService) Close() error {
	if err := s.ch.Close(); err != nil {
		return err
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
