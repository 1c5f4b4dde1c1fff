package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/logging"
	"github.com/princinho/moviecatalog/metrics"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// tokenBucketScript refills whole intervals, takes one token and returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

type limitResult struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// RateLimit throttles per client IP and route. With a redis client the
// bucket is shared across instances; without one each process keeps its own
// x/time/rate limiters. Redis errors let the request through.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Capacity <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	local := newLocalLimiter(cfg)
	backend := "local"
	if rdb != nil {
		backend = "redis"
	}

	return func(c *gin.Context) {
		key := rateKey(cfg.Prefix, c)

		var (
			res limitResult
			err error
		)
		if rdb != nil {
			res, err = redisTake(c, rdb, cfg, key)
			if err != nil {
				logging.Ctx(c.Request.Context()).Warn().Err(err).Str("key", key).Msg("rate limit check failed")
				c.Next()
				return
			}
		} else {
			res = local.take(key)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
		if !res.allowed {
			secs := int(math.Ceil(res.retry.Seconds()))
			if secs < 0 {
				secs = 0
			}
			metrics.RateLimited.WithLabelValues(backend).Inc()
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
			return
		}
		c.Next()
	}
}

func redisTake(c *gin.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (limitResult, error) {
	ttl := int64(cfg.TTL / time.Second)
	if ttl <= 0 {
		ttl = 60
	}
	vals, err := tokenBucketScript.Run(c.Request.Context(), rdb, []string{key},
		time.Now().UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		ttl,
	).Int64Slice()
	if err != nil {
		return limitResult{}, err
	}
	if len(vals) != 3 {
		return limitResult{}, fmt.Errorf("unexpected script result %v", vals)
	}
	return limitResult{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		retry:     time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

func rateKey(prefix string, c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return strings.Join([]string{prefix, "ip", ip, "route", c.Request.Method + " " + route}, ":")
}

type localEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// localLimiter keeps one x/time/rate limiter per key.
type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*localEntry
	every    rate.Limit
	burst    int
	ttl      time.Duration
	lastGC   time.Time
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	every := rate.Inf
	if cfg.RefillTokens > 0 && cfg.RefillInterval > 0 {
		every = rate.Every(cfg.RefillInterval / time.Duration(cfg.RefillTokens))
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &localLimiter{
		limiters: make(map[string]*localEntry),
		every:    every,
		burst:    cfg.Capacity,
		ttl:      ttl,
		lastGC:   time.Now(),
	}
}

func (l *localLimiter) take(key string) limitResult {
	now := time.Now()

	l.mu.Lock()
	if now.Sub(l.lastGC) > l.ttl {
		for k, e := range l.limiters {
			if now.Sub(e.lastAccess) > l.ttl {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}
	entry, ok := l.limiters[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	l.mu.Unlock()

	r := limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return limitResult{allowed: false, remaining: 0, retry: delay}
	}
	remaining := int64(limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return limitResult{allowed: true, remaining: remaining}
}
