// Package guard rejects automated or abusive submissions before they reach
// validation and storage.
package guard

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantonganh/waitlist"
)

// Defaults
const (
	DefaultIdentifier      = "default"
	DefaultLimit           = 3
	DefaultWindow          = 5 * time.Minute
	DefaultMinFillDuration = 3 * time.Second
)

const (
	honeypotMessage  = "Submission failed validation"
	tooFastMessage   = "Please wait a moment before submitting."
	rateLimitMessage = "Too many attempts. Please wait 5 minutes."
)

// Guard runs the bot and rate limit checks
type Guard struct {
	store waitlist.WindowStore

	Limit           int
	Window          time.Duration
	MinFillDuration time.Duration

	Now func() time.Time
}

// New returns a Guard over store with the default thresholds
func New(store waitlist.WindowStore) *Guard {
	return &Guard{
		store:           store,
		Limit:           DefaultLimit,
		Window:          DefaultWindow,
		MinFillDuration: DefaultMinFillDuration,
		Now:             time.Now,
	}
}

// CheckBot rejects submissions with a filled honeypot field or submitted too
// soon after the form was loaded. A zero loadedAt skips the timing check.
func (g *Guard) CheckBot(ctx context.Context, honeypot string, loadedAt time.Time) error {
	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(honeypot) != "" {
		logger.Warn().Msg("Honeypot triggered")
		return &waitlist.Error{
			Code:    waitlist.ErrBotDetected,
			Message: honeypotMessage,
			Op:      "guard.CheckBot",
		}
	}

	if !loadedAt.IsZero() && g.Now().Sub(loadedAt) < g.MinFillDuration {
		logger.Info().Time("loaded_at", loadedAt).Msg("Form submitted too quickly")
		return &waitlist.Error{
			Code:    waitlist.ErrBotDetected,
			Message: tooFastMessage,
			Op:      "guard.CheckBot",
		}
	}

	return nil
}

// CheckRateLimit records an attempt for identifier and rejects it once the
// trailing window already holds Limit attempts. Store failures let the
// attempt through.
func (g *Guard) CheckRateLimit(ctx context.Context, identifier string) error {
	if identifier == "" {
		identifier = DefaultIdentifier
	}

	allowed, err := g.store.Allow(ctx, identifier, g.Now(), g.Window, g.Limit)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("identifier", identifier).Msg("Rate limit store unavailable, allowing attempt")
		return nil
	}

	if !allowed {
		return &waitlist.Error{
			Code:    waitlist.ErrRateLimited,
			Message: rateLimitMessage,
			Op:      "guard.CheckRateLimit",
		}
	}

	return nil
}
