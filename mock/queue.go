package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// QueueService is a mock of waitlist.QueueService
type QueueService struct {
	mock.Mock
}

// Publish mocks waitlist.QueueService.Publish
func (m *QueueService) Publish(ctx context.Context, topic string, body []byte) error {
	args := m.Called(ctx, topic, body)
	return args.Error(0)
}

// Close mocks waitlist.QueueService.Close
func (m *QueueService) Close() error {
	return m.Called().Error(0)
}
