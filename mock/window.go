package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// WindowStore is a mock of waitlist.WindowStore
type WindowStore struct {
	mock.Mock
}

// Allow mocks waitlist.WindowStore.Allow
func (m *WindowStore) Allow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	args := m.Called(ctx, key, now, window, limit)
	return args.Bool(0), args.Error(1)
}
