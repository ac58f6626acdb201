// Package redis shares rate limit windows between instances through Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	uuid "github.com/satori/go.uuid"
)

const keyPrefix = "waitlist:attempts:"

// allowScript prunes, counts and appends in one server-side step.
// KEYS[1] window key; ARGV now (ms), window (ms), limit, member.
var allowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
if redis.call('ZCARD', KEYS[1]) >= limit then
	return 0
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return 1
`)

// WindowStore keeps attempt windows in Redis sorted sets
type WindowStore struct {
	client redis.UniversalClient
}

// NewWindowStore returns a window store backed by client
func NewWindowStore(client redis.UniversalClient) *WindowStore {
	return &WindowStore{
		client: client,
	}
}

// Allow implements waitlist.WindowStore
func (s *WindowStore) Allow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	nowMs := now.UnixNano() / int64(time.Millisecond)
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewV4().String())

	res, err := allowScript.Run(ctx, s.client, []string{keyPrefix + key},
		nowMs, window.Milliseconds(), limit, member).Int()
	if err != nil {
		return false, fmt.Errorf("failed to check window %s: %w", key, err)
	}

	return res == 1, nil
}
