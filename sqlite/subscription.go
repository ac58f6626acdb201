package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	uuid "github.com/satori/go.uuid"

	"github.com/quantonganh/waitlist"
)

// timeLayout has a fixed width so that created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

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
	var one int
	err := ss.db.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM subscriptions WHERE email = ? LIMIT 1", email).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find by email %s: %w", email, err)
	}
	return true, nil
}

// Insert inserts a new subscription with a generated id and the current time
func (ss *subscriptionService) Insert(ctx context.Context, s *waitlist.Subscription) error {
	s.ID = uuid.NewV4().String()
	s.CreatedAt = ss.db.Now().UTC()

	_, err := ss.db.sqlDB.ExecContext(ctx,
		"INSERT INTO subscriptions (id, email, created_at, subscribed, user_agent, verified) VALUES (?, ?, ?, ?, ?, ?)",
		s.ID, s.Email, s.CreatedAt.Format(timeLayout), s.Subscribed, s.UserAgent, s.Verified)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return &waitlist.Error{
				Code:    waitlist.ErrConflict,
				Message: "Email already subscribed",
				Op:      "sqlite.Insert",
				Err:     err,
			}
		}
		return fmt.Errorf("failed to insert: %w", err)
	}
	return nil
}

// FindAll returns all subscriptions, most recent first
func (ss *subscriptionService) FindAll(ctx context.Context) ([]waitlist.Subscription, error) {
	rows, err := ss.db.sqlDB.QueryContext(ctx,
		"SELECT id, email, created_at, subscribed, user_agent, verified FROM subscriptions ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to find all: %w", err)
	}
	defer rows.Close()

	subscriptions := []waitlist.Subscription{}
	for rows.Next() {
		var (
			s         waitlist.Subscription
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.Email, &createdAt, &s.Subscribed, &s.UserAgent, &s.Verified); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			s.CreatedAt = t
		} else {
			s.RawCreatedAt = createdAt
		}
		subscriptions = append(subscriptions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return subscriptions, nil
}
