// Package signup admits a submission into the waitlist.
package signup

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantonganh/waitlist"
	"github.com/quantonganh/waitlist/guard"
	"github.com/quantonganh/waitlist/validator"
)

// Defaults
const (
	DefaultStorageTimeout = 5 * time.Second
	DefaultTopic          = "subscription.created"
)

const (
	duplicateMessage = "Email already subscribed"
	saveMessage      = "Failed to save email. Please try again."
)

// Pipeline runs honeypot, timing, rate limit, validation and duplicate
// checks, then persists. The first failing step ends the submission.
type Pipeline struct {
	Guard               *guard.Guard
	Validator           *validator.Validator
	Duplicates          *DuplicateChecker
	SubscriptionService waitlist.SubscriptionService

	// QueueService is optional. Publishing is best effort.
	QueueService waitlist.QueueService
	Topic        string

	StorageTimeout time.Duration
}

// NewPipeline wires a pipeline with default settings
func NewPipeline(g *guard.Guard, v *validator.Validator, ss waitlist.SubscriptionService) *Pipeline {
	return &Pipeline{
		Guard:     g,
		Validator: v,
		Duplicates: &DuplicateChecker{
			SubscriptionService: ss,
			FailureMode:         waitlist.FailOpen,
		},
		SubscriptionService: ss,
		Topic:               DefaultTopic,
		StorageTimeout:      DefaultStorageTimeout,
	}
}

// Admit returns the stored subscription or the *waitlist.Error of the step
// that rejected it.
func (p *Pipeline) Admit(ctx context.Context, sub waitlist.Submission) (*waitlist.Subscription, error) {
	logger := zerolog.Ctx(ctx)

	if err := p.Guard.CheckBot(ctx, sub.Honeypot, sub.LoadedAt); err != nil {
		return nil, err
	}

	if err := p.Guard.CheckRateLimit(ctx, sub.Identifier); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(sub.Email)
	if reason := p.Validator.Validate(email); reason != validator.Accepted {
		return nil, &waitlist.Error{
			Code:    waitlist.ErrInvalid,
			Message: reason.Message(),
			Op:      "signup.Admit",
			Reason:  string(reason),
		}
	}
	email = strings.ToLower(email)

	duplicate, err := p.isDuplicate(ctx, email)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, &waitlist.Error{
			Code:    waitlist.ErrConflict,
			Message: duplicateMessage,
			Op:      "signup.Admit",
		}
	}

	s := waitlist.NewSubscription(email, sub.UserAgent)
	logger.Info().Str("email", email).Msg("Saving new subscriber into the database")
	if err := p.insert(ctx, s); err != nil {
		if waitlist.ErrorCode(err) == waitlist.ErrConflict {
			return nil, &waitlist.Error{
				Code:    waitlist.ErrConflict,
				Message: duplicateMessage,
				Op:      "signup.Admit",
				Err:     err,
			}
		}
		logger.Error().Err(err).Msg("Error saving email")
		return nil, &waitlist.Error{
			Code:    waitlist.ErrInternal,
			Message: saveMessage,
			Op:      "signup.Admit",
			Err:     err,
		}
	}
	logger.Info().Str("id", s.ID).Msg("Email saved")

	p.publish(ctx, s)

	return s, nil
}

func (p *Pipeline) isDuplicate(ctx context.Context, email string) (bool, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.Duplicates.IsDuplicate(ctx, email)
}

func (p *Pipeline) insert(ctx context.Context, s *waitlist.Subscription) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.SubscriptionService.Insert(ctx, s)
}

func (p *Pipeline) publish(ctx context.Context, s *waitlist.Subscription) {
	if p.QueueService == nil {
		return
	}

	logger := zerolog.Ctx(ctx)
	body, err := json.Marshal(waitlist.NewEntry(*s))
	if err != nil {
		logger.Error().Err(err).Msg("Error encoding subscription event")
		return
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := p.QueueService.Publish(ctx, p.Topic, body); err != nil {
		logger.Error().Err(err).Str("topic", p.Topic).Msg("Error publishing subscription event")
	}
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.StorageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.StorageTimeout)
}
