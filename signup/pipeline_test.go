package signup_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantonganh/waitlist"
	"github.com/quantonganh/waitlist/bolt"
	"github.com/quantonganh/waitlist/guard"
	"github.com/quantonganh/waitlist/memory"
	waitlistmock "github.com/quantonganh/waitlist/mock"
	"github.com/quantonganh/waitlist/signup"
	"github.com/quantonganh/waitlist/validator"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newPipeline(ss waitlist.SubscriptionService, now *time.Time) *signup.Pipeline {
	g := guard.New(memory.NewWindowStore())
	g.Now = func() time.Time { return *now }
	return signup.NewPipeline(g, validator.Default(), ss)
}

func newBoltPipeline(t *testing.T, now *time.Time) *signup.Pipeline {
	t.Helper()

	db := bolt.NewDB(filepath.Join(t.TempDir(), "waitlist.db"))
	require.NoError(t, db.Open())
	t.Cleanup(func() {
		_ = db.Close()
	})
	db.Now = func() time.Time { return *now }

	return newPipeline(bolt.NewSubscriptionService(db), now)
}

func submit(ctx context.Context, p *signup.Pipeline, sub waitlist.Submission) *waitlist.SubscriptionResponse {
	return waitlist.NewSubscriptionResponse(p.Admit(ctx, sub))
}

func TestSubmit(t *testing.T) {
	now := start
	ss := new(waitlistmock.SubscriptionService)
	ss.On("Exists", mock.Anything, "foo@gmail.com").Return(false, nil)
	ss.On("Insert", mock.Anything, mock.MatchedBy(func(s *waitlist.Subscription) bool {
		return s.Email == "foo@gmail.com" && s.Subscribed && !s.Verified && s.UserAgent == "Mozilla/5.0"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*waitlist.Subscription).ID = "abc123"
	}).Return(nil)

	p := newPipeline(ss, &now)
	resp := submit(context.Background(), p, waitlist.Submission{
		Email:     "  Foo@Gmail.com ",
		LoadedAt:  start.Add(-10 * time.Second),
		UserAgent: "Mozilla/5.0",
	})

	assert.True(t, resp.Success)
	assert.Equal(t, "abc123", resp.ID)
	assert.Empty(t, resp.Error)
	ss.AssertExpectations(t)
}

func TestSubmitShortCircuits(t *testing.T) {
	testCases := []struct {
		name    string
		sub     waitlist.Submission
		code    string
		message string
	}{
		{
			name:    "honeypot",
			sub:     waitlist.Submission{Email: "foo@gmail.com", Honeypot: "http://spam.example"},
			code:    waitlist.ErrBotDetected,
			message: "Submission failed validation",
		},
		{
			name:    "too fast",
			sub:     waitlist.Submission{Email: "foo@gmail.com", LoadedAt: start.Add(-time.Second)},
			code:    waitlist.ErrBotDetected,
			message: "Please wait a moment before submitting.",
		},
		{
			name:    "invalid format",
			sub:     waitlist.Submission{Email: "foo@gmail"},
			code:    waitlist.ErrInvalid,
			message: "Invalid email format",
		},
		{
			name:    "disposable domain",
			sub:     waitlist.Submission{Email: "foo@Mailinator.com"},
			code:    waitlist.ErrInvalid,
			message: "Disposable email addresses are not allowed",
		},
		{
			name:    "suspicious pattern",
			sub:     waitlist.Submission{Email: "noreply@shop.com"},
			code:    waitlist.ErrInvalid,
			message: "Suspicious email pattern detected",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			now := start
			ss := new(waitlistmock.SubscriptionService)
			p := newPipeline(ss, &now)

			_, err := p.Admit(context.Background(), tc.sub)
			assert.Equal(t, tc.code, waitlist.ErrorCode(err))
			assert.Equal(t, tc.message, waitlist.ErrorMessage(err))

			resp := submit(context.Background(), p, tc.sub)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Error)

			ss.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
			ss.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitHoneypotSkipsRateLimit(t *testing.T) {
	now := start
	store := new(waitlistmock.WindowStore)
	g := guard.New(store)
	g.Now = func() time.Time { return now }
	p := signup.NewPipeline(g, validator.Default(), new(waitlistmock.SubscriptionService))

	resp := submit(context.Background(), p, waitlist.Submission{Email: "foo@gmail.com", Honeypot: "x"})
	assert.False(t, resp.Success)
	store.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitValidationReason(t *testing.T) {
	now := start
	p := newPipeline(new(waitlistmock.SubscriptionService), &now)

	_, err := p.Admit(context.Background(), waitlist.Submission{Email: "a@yopmail.com"})
	var e *waitlist.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, string(validator.DisposableDomain), e.Reason)
}

func TestSubmitRateLimited(t *testing.T) {
	now := start
	ss := new(waitlistmock.SubscriptionService)
	p := newPipeline(ss, &now)

	// invalid submissions still count as attempts
	for i := 0; i < 3; i++ {
		resp := submit(context.Background(), p, waitlist.Submission{Email: "not-an-email"})
		assert.Equal(t, "Invalid email format", resp.Error)
	}

	_, err := p.Admit(context.Background(), waitlist.Submission{Email: "foo@gmail.com"})
	assert.Equal(t, waitlist.ErrRateLimited, waitlist.ErrorCode(err))
	ss.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestSubmitDuplicate(t *testing.T) {
	now := start
	p := newBoltPipeline(t, &now)
	ctx := context.Background()

	resp := submit(ctx, p, waitlist.Submission{Email: "foo@gmail.com"})
	require.True(t, resp.Success)

	_, err := p.Admit(ctx, waitlist.Submission{Email: "FOO@gmail.com "})
	assert.Equal(t, waitlist.ErrConflict, waitlist.ErrorCode(err))
	assert.Equal(t, "Email already subscribed", waitlist.ErrorMessage(err))
}

func TestSubmitRetryAfterWait(t *testing.T) {
	now := start
	p := newBoltPipeline(t, &now)
	sub := waitlist.Submission{Email: "foo@gmail.com", LoadedAt: start.Add(-time.Second)}

	resp := submit(context.Background(), p, sub)
	assert.Equal(t, "Please wait a moment before submitting.", resp.Error)

	now = now.Add(2 * time.Second)
	resp = submit(context.Background(), p, sub)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ID)
}

func TestSubmitDuplicateCheckFailureMode(t *testing.T) {
	storageErr := errors.New("deadline exceeded")

	t.Run("open", func(t *testing.T) {
		now := start
		ss := new(waitlistmock.SubscriptionService)
		ss.On("Exists", mock.Anything, "foo@gmail.com").Return(false, storageErr)
		ss.On("Insert", mock.Anything, mock.Anything).Return(nil)

		p := newPipeline(ss, &now)
		resp := submit(context.Background(), p, waitlist.Submission{Email: "foo@gmail.com"})
		assert.True(t, resp.Success)
		ss.AssertExpectations(t)
	})

	t.Run("closed", func(t *testing.T) {
		now := start
		ss := new(waitlistmock.SubscriptionService)
		ss.On("Exists", mock.Anything, "foo@gmail.com").Return(false, storageErr)

		p := newPipeline(ss, &now)
		p.Duplicates.FailureMode = waitlist.FailClosed
		_, err := p.Admit(context.Background(), waitlist.Submission{Email: "foo@gmail.com"})
		assert.Equal(t, waitlist.ErrUnavailable, waitlist.ErrorCode(err))
		assert.ErrorIs(t, err, storageErr)
		ss.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})
}

func TestSubmitInsertFailure(t *testing.T) {
	now := start
	ss := new(waitlistmock.SubscriptionService)
	ss.On("Exists", mock.Anything, "foo@gmail.com").Return(false, nil)
	ss.On("Insert", mock.Anything, mock.Anything).Return(errors.New("permission denied"))

	p := newPipeline(ss, &now)
	resp := submit(context.Background(), p, waitlist.Submission{Email: "foo@gmail.com"})
	assert.False(t, resp.Success)
	assert.Equal(t, "Failed to save email. Please try again.", resp.Error)
}

func TestSubmitStorageTimeout(t *testing.T) {
	now := start
	ss := new(waitlistmock.SubscriptionService)
	ss.On("Exists", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), "foo@gmail.com").Return(false, nil)
	ss.On("Insert", mock.Anything, mock.Anything).Return(nil)

	p := newPipeline(ss, &now)
	p.StorageTimeout = time.Second
	assert.True(t, submit(context.Background(), p, waitlist.Submission{Email: "foo@gmail.com"}).Success)
	ss.AssertExpectations(t)
}

func TestSubmitPublishesEvent(t *testing.T) {
	now := start
	ss := new(waitlistmock.SubscriptionService)
	ss.On("Exists", mock.Anything, "foo@gmail.com").Return(false, nil)
	ss.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		s := args.Get(1).(*waitlist.Subscription)
		s.ID = "abc123"
		s.CreatedAt = start
	}).Return(nil)

	queue := new(waitlistmock.QueueService)
	queue.On("Publish", mock.Anything, signup.DefaultTopic, mock.MatchedBy(func(body []byte) bool {
		var e waitlist.Entry
		if err := json.Unmarshal(body, &e); err != nil {
			return false
		}
		return e.ID == "abc123" && e.Email == "foo@gmail.com" && e.Timestamp == "2024-01-01T00:00:00Z"
	})).Return(errors.New("channel closed"))

	p := newPipeline(ss, &now)
	p.QueueService = queue

	// publish failures do not fail the submission
	resp := submit(context.Background(), p, waitlist.Submission{Email: "foo@gmail.com"})
	assert.True(t, resp.Success)
	queue.AssertExpectations(t)
}
