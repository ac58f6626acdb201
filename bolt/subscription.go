package bolt

import (
	"context"
	"sort"

	"github.com/asdine/storm/v3"
	"github.com/go-errors/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/quantonganh/waitlist"
)

type subscriptionService struct {
	db *DB
}

// NewSubscriptionService returns a subscription service backed by db
func NewSubscriptionService(db *DB) waitlist.SubscriptionService {
	return &subscriptionService{
		db: db,
	}
}

// Exists looks up a single subscription by email
func (ss *subscriptionService) Exists(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var s waitlist.Subscription
	if err := ss.db.stormDB.One("Email", email, &s); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return false, nil
		}
		return false, errors.Errorf("failed to find by email: %v", err)
	}

	return true, nil
}

// Insert saves a new subscription with a generated id and the current time
func (ss *subscriptionService) Insert(ctx context.Context, s *waitlist.Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.ID = uuid.NewV4().String()
	s.CreatedAt = ss.db.Now().UTC()
	if err := ss.db.stormDB.Save(s); err != nil {
		if errors.Is(err, storm.ErrAlreadyExists) {
			return &waitlist.Error{
				Code:    waitlist.ErrConflict,
				Message: "Email already subscribed",
				Op:      "bolt.Insert",
				Err:     err,
			}
		}
		return errors.Errorf("failed to save: %v", err)
	}

	return nil
}

// FindAll returns all subscriptions, most recent first
func (ss *subscriptionService) FindAll(ctx context.Context) ([]waitlist.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var subscriptions []waitlist.Subscription
	if err := ss.db.stormDB.All(&subscriptions); err != nil {
		return nil, errors.Errorf("failed to find all: %v", err)
	}

	sort.SliceStable(subscriptions, func(i, j int) bool {
		return subscriptions[i].CreatedAt.After(subscriptions[j].CreatedAt)
	})

	return subscriptions, nil
}
