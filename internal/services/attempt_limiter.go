package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// luaAttemptWindow implements a sliding-window counter as one atomic Lua
// script. KEYS[1] is the per-phone key; ARGV: now, window start, window
// seconds, member, limit. Returns the attempt count, or -1 when the
// window is already full.
const luaAttemptWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)

if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

// AttemptLimiter throttles call-verification attempts per phone number
// using a Redis sliding window. A phone that exhausts its quota stays
// blocked until the cooldown window slides past its oldest attempt.
type AttemptLimiter struct {
	rdb      *redis.Client
	limit    int
	cooldown time.Duration
}

// NewAttemptLimiter constructs an AttemptLimiter.
func NewAttemptLimiter(rdb *redis.Client, limit int, cooldown time.Duration) *AttemptLimiter {
	return &AttemptLimiter{rdb: rdb, limit: limit, cooldown: cooldown}
}

func attemptKey(phone string) string {
	return "call_verify:attempts:" + phone
}

// Allow records one attempt for the phone and reports whether it is within
// quota. Redis outages fail open: verification keeps working without the
// throttle rather than locking every customer out.
func (l *AttemptLimiter) Allow(ctx context.Context, phone string) bool {
	now := time.Now().Unix()
	windowSec := int64(l.cooldown.Seconds())
	member := fmt.Sprintf("%d-%d", now, time.Now().UnixNano())

	res, err := l.rdb.Eval(ctx, luaAttemptWindow, []string{attemptKey(phone)},
		now, now-windowSec, windowSec, member, l.limit).Int()
	if err != nil {
		log.Printf("[AttemptLimiter] redis eval failed, failing open: %v", err)
		return true
	}

	return res >= 0
}

// RetryAfter returns how long the caller should wait before retrying.
func (l *AttemptLimiter) RetryAfter() time.Duration {
	return l.cooldown
}
