package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meur/tiermaker/internal/models"
)

// Limiter decides whether a client may make another request
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter keeps a token bucket per client IP in process memory
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	stop     chan struct{}
	once     sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter creates a limiter allowing rps requests per second with
// the given burst. Stale visitors are evicted in the background until Close
func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	l := &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go l.cleanupVisitors(time.Minute, 3*time.Minute)
	return l
}

// Allow consumes one token for key
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow(), nil
}

// Close stops the eviction goroutine
func (l *MemoryLimiter) Close() error {
	l.once.Do(func() { close(l.stop) })
	return nil
}

func (l *MemoryLimiter) cleanupVisitors(every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			for ip, v := range l.visitors {
				if time.Since(v.lastSeen) > maxIdle {
					delete(l.visitors, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// redisTokenBucketScript refills and consumes a token bucket atomically
// KEYS[1] = bucket key
// ARGV[1] = refill rate (tokens per second)
// ARGV[2] = capacity
// ARGV[3] = now (unix seconds, fractional)
var redisTokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 60)

return allowed
`)

// RedisLimiter shares token buckets between server instances through Redis
type RedisLimiter struct {
	client *redis.Client
	rps    float64
	burst  int
}

// NewRedisLimiter creates a limiter backed by the Redis server at addr
func NewRedisLimiter(addr, password string, rps float64, burst int) *RedisLimiter {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &RedisLimiter{client: client, rps: rps, burst: burst}
}

// Allow consumes one token for key
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixMicro()) / 1e6
	res, err := redisTokenBucketScript.Run(ctx, l.client,
		[]string{"tiermaker:ratelimit:" + key}, l.rps, l.burst, now).Int()
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	return res == 1, nil
}

// Ping checks the Redis connection
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// rateLimit rejects requests over the limit with 429. Limiter failures let
// the request through
func rateLimit(l Limiter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				log.Warn("rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", "1")
				respondJSON(w, http.StatusTooManyRequests, models.ErrorResponse{Message: "Too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. Forwarded headers only count when
// the server trusts its proxy and RealIP has rewritten RemoteAddr
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = strings.TrimSuffix(strings.TrimPrefix(r.RemoteAddr, "["), "]")
	}
	return ip
}
