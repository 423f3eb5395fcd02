package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// takeScript refills the bucket for the time elapsed since the last refill,
// then consumes one token if there is one. It returns {allowed, remaining}.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// TokenBucket is a Redis backed token bucket shared by every instance of the
// service.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64         // Maximum number of tokens
	refill   int64         // Tokens added per window
	window   time.Duration // Refill window, whole seconds
	prefix   string
}

// Decision is the outcome of Take.
type Decision struct {
	Allowed   bool
	Remaining int64
}

// NewTokenBucket creates a limiter for action. A window shorter than a second
// is rounded up to one second.
func NewTokenBucket(redisClient *redis.Client, action string, capacity, refillRate int64, window time.Duration) *TokenBucket {
	if window < time.Second {
		window = time.Second
	}
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   window,
		prefix:   fmt.Sprintf("rate_limit:%s:", action),
	}
}

// Capacity is the burst size of the bucket.
func (tb *TokenBucket) Capacity() int64 { return tb.capacity }

// Window is the refill window of the bucket.
func (tb *TokenBucket) Window() time.Duration { return tb.window }

// Take consumes a token for client if one is available.
func (tb *TokenBucket) Take(ctx context.Context, client string) (Decision, error) {
	result, err := takeScript.Run(ctx, tb.redis, []string{tb.prefix + client}, tb.args()...).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected result from rate limit script: %v", result)
	}
	allowed, ok1 := values[0].(int64)
	remaining, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return Decision{}, fmt.Errorf("unexpected result from rate limit script: %v", result)
	}

	return Decision{Allowed: allowed == 1, Remaining: remaining}, nil
}

func (tb *TokenBucket) args() []interface{} {
	return []interface{}{tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix()}
}
