package waitlist

import (
	"context"
	"time"
)

// WindowStore keeps a trailing window of attempt timestamps per key.
//
// Allow must behave as one atomic step per key: drop attempts at or before
// now-window, refuse when limit attempts remain, otherwise record now.
type WindowStore interface {
	Allow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error)
}
