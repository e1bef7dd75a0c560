package webserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const rateLimitMessage = "Too many requests, please try again later."

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per key within a window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}

// MemoryLimiter is a sliding-window log kept in process memory.
type MemoryLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryLimiter starts a janitor that drops keys idle for longer than window.
func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	rl := &MemoryLimiter{
		requests: make(map[string][]time.Time),
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup(window)
			case <-rl.stop:
				return
			}
		}
	}()

	return rl
}

func (rl *MemoryLimiter) Close() error {
	rl.stopOnce.Do(func() { close(rl.stop) })
	return nil
}

func (rl *MemoryLimiter) cleanup(window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, times := range rl.requests {
		valid := prune(times, now, window)
		if len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error) {
	if limit <= 0 {
		return RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := prune(rl.requests[key], now, window)

	if len(valid) >= limit {
		rl.requests[key] = valid
		return RateLimitDecision{Limit: limit, ResetAt: valid[0].Add(window)}, nil
	}

	valid = append(valid, now)
	rl.requests[key] = valid
	return RateLimitDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(valid),
		ResetAt:   valid[0].Add(window),
	}, nil
}

func prune(times []time.Time, now time.Time, window time.Duration) []time.Time {
	valid := times[:0:0]
	for _, t := range times {
		if now.Sub(t) < window {
			valid = append(valid, t)
		}
	}
	return valid
}

// RedisLimiter is a fixed-window counter shared by every replica.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

var redisAllowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error) {
	if limit <= 0 {
		return RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	result, err := redisAllowScript.Run(ctx, r.client, []string{key}, windowMillis).Result()
	if err != nil {
		return RateLimitDecision{}, err
	}
	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return RateLimitDecision{}, errors.New("unexpected redis rate limit response")
	}
	current, ok := values[0].(int64)
	if !ok {
		return RateLimitDecision{}, errors.New("invalid redis counter response")
	}
	ttlMillis, _ := values[1].(int64)
	resetAt := r.now()
	if ttlMillis > 0 {
		resetAt = resetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitDecision{
		Allowed:   current <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func rateLimitKey(clientIP string) string {
	return "ratelimit:ip:" + strconv.FormatUint(xxhash.ChecksumString64(clientIP), 16)
}

// RateLimitMiddleware keys on client IP. If the limiter itself fails the request is let through.
func RateLimitMiddleware(limiter Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), rateLimitKey(c.ClientIP()), limit, window)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		writeRateLimitHeaders(c, decision)
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitMessage})
			return
		}
		c.Next()
	}
}

func writeRateLimitHeaders(c *gin.Context, decision RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			retryAfter := int64(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		}
	}
}
