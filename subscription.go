package waitlist

import (
	"context"
	"time"
)

// SubscriptionService is the interface that wraps methods related to the subscriptions collection
type SubscriptionService interface {
	// Exists reports whether a subscription with exactly this email is stored.
	Exists(ctx context.Context, email string) (bool, error)
	// Insert assigns ID and CreatedAt, then persists s.
	Insert(ctx context.Context, s *Subscription) error
	// FindAll returns every subscription, most recent first.
	FindAll(ctx context.Context) ([]Subscription, error)
}

// Subscription represents a captured email
type Subscription struct {
	ID         string    `json:"id" storm:"id"`
	Email      string    `json:"email" storm:"unique"`
	CreatedAt  time.Time `json:"createdAt"`
	Subscribed bool      `json:"subscribed"`
	UserAgent  string    `json:"userAgent"`
	Verified   bool      `json:"verified"`

	// RawCreatedAt holds the stored timestamp when it could not be decoded.
	RawCreatedAt string `json:"-"`
}

// NewSubscription returns a new subscription for an already normalized email
func NewSubscription(email, userAgent string) *Subscription {
	if userAgent == "" {
		userAgent = "unknown"
	}
	return &Subscription{
		Email:      email,
		Subscribed: true,
		UserAgent:  userAgent,
		Verified:   false,
	}
}

// Timestamp returns CreatedAt in RFC 3339, falling back to the raw stored value
func (s Subscription) Timestamp() string {
	if s.CreatedAt.IsZero() {
		return s.RawCreatedAt
	}
	return s.CreatedAt.UTC().Format(time.RFC3339)
}

// Entry is a subscription as listed to the operator
type Entry struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Timestamp  string `json:"timestamp"`
	Subscribed bool   `json:"subscribed"`
	UserAgent  string `json:"userAgent"`
	Verified   bool   `json:"verified"`
}

// NewEntry converts a stored subscription into a listing entry
func NewEntry(s Subscription) Entry {
	return Entry{
		ID:         s.ID,
		Email:      s.Email,
		Timestamp:  s.Timestamp(),
		Subscribed: s.Subscribed,
		UserAgent:  s.UserAgent,
		Verified:   s.Verified,
	}
}

// Submission is a single attempt to join the list
type Submission struct {
	Email     string
	Honeypot  string
	LoadedAt  time.Time
	UserAgent string
	// Identifier keys the rate limit window. Empty means the shared default bucket.
	Identifier string
}

// SubscriptionRequest is the payload posted by the landing page form
type SubscriptionRequest struct {
	Email     string `json:"email"`
	Website   string `json:"website"`
	LoadedAt  int64  `json:"loadedAt"`
	UserAgent string `json:"userAgent"`
}

// SubscriptionResponse is the outcome of a submission
type SubscriptionResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EmailsResponse is the admin listing
type EmailsResponse struct {
	Success bool    `json:"success"`
	Count   int     `json:"count"`
	Emails  []Entry `json:"emails"`
}

// NewSubscriptionResponse reports the outcome of an admission
func NewSubscriptionResponse(s *Subscription, err error) *SubscriptionResponse {
	if err != nil {
		return &SubscriptionResponse{
			Success: false,
			Error:   ErrorMessage(err),
		}
	}

	return &SubscriptionResponse{
		Success: true,
		ID:      s.ID,
	}
}

// SignupService admits submissions into the waitlist
type SignupService interface {
	Admit(ctx context.Context, sub Submission) (*Subscription, error)
}
