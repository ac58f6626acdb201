package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	ret := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return ret.Get(0).(amqp.Queue), ret.Error(1)
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestPublish(t *testing.T) {
	ch := new(mockChannel)
	body := []byte(`{"email":"foo@gmail.com"}`)

	ch.On("QueueDeclare", "subscription.created", true, false, false, false, amqp.Table(nil)).
		Return(amqp.Queue{Name: "subscription.created"}, nil)
	ch.On("PublishWithContext", mock.Anything, "", "subscription.created", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}).Return(nil)
	ch.On("Close").Return(nil)

	s := NewQueueServiceWithChannel(ch)
	require.NoError(t, s.Publish(context.Background(), "subscription.created", body))
	require.NoError(t, s.Close())
	ch.AssertExpectations(t)
}

func TestPublishDeclareError(t *testing.T) {
	ch := new(mockChannel)
	ch.On("QueueDeclare", "subscription.created", true, false, false, false, amqp.Table(nil)).
		Return(amqp.Queue{}, errors.New("channel/connection is not open"))

	s := NewQueueServiceWithChannel(ch)
	err := s.Publish(context.Background(), "subscription.created", nil)
	assert.Error(t, err)
	ch.AssertNotCalled(t, "PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
