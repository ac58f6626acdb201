// Package mock provides testify mocks of the waitlist interfaces.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/quantonganh/waitlist"
)

// SubscriptionService is a mock of waitlist.SubscriptionService
type SubscriptionService struct {
	mock.Mock
}

// Exists mocks waitlist.SubscriptionService.Exists
func (m *SubscriptionService) Exists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// Insert mocks waitlist.SubscriptionService.Insert
func (m *SubscriptionService) Insert(ctx context.Context, s *waitlist.Subscription) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// FindAll mocks waitlist.SubscriptionService.FindAll
func (m *SubscriptionService) FindAll(ctx context.Context) ([]waitlist.Subscription, error) {
	args := m.Called(ctx)
	subscriptions, _ := args.Get(0).([]waitlist.Subscription)
	return subscriptions, args.Error(1)
}
