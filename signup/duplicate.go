package signup

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quantonganh/waitlist"
)

// DuplicateChecker reports whether an email is already stored.
//
// When storage fails in FailOpen mode the email is treated as new so that
// an outage does not turn away legitimate visitors. FailClosed rejects the
// submission instead.
type DuplicateChecker struct {
	SubscriptionService waitlist.SubscriptionService
	FailureMode         string
}

// IsDuplicate expects a normalized email
func (c *DuplicateChecker) IsDuplicate(ctx context.Context, email string) (bool, error) {
	exists, err := c.SubscriptionService.Exists(ctx, email)
	if err == nil {
		return exists, nil
	}

	if c.FailureMode == waitlist.FailClosed {
		return false, &waitlist.Error{
			Code:    waitlist.ErrUnavailable,
			Message: "Service temporarily unavailable. Please try again later.",
			Op:      "signup.IsDuplicate",
			Err:     err,
		}
	}

	zerolog.Ctx(ctx).Error().Err(err).Msg("Error checking for duplicates")
	return false, nil
}
