package middleware

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

	"github.com/rickyzatnika/new-spinner/utils"
)

// Counter records one hit for key and reports how many hits fall inside the
// current window, plus how long until the oldest one expires.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
}

type timestamps []int64 // unix nanos

// MemoryCounter is a per-process sliding window.
type MemoryCounter struct {
	mu    sync.Mutex
	state map[string]timestamps
	now   func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{state: make(map[string]timestamps), now: time.Now}
}

func (c *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := c.now().UnixNano()
	cutoff := now - int64(window)

	c.mu.Lock()
	defer c.mu.Unlock()
	var filtered timestamps
	for _, ts := range c.state[key] {
		if ts >= cutoff {
			filtered = append(filtered, ts)
		}
	}
	filtered = append(filtered, now)
	c.state[key] = filtered
	// filtered is append-ordered so the first entry is the oldest
	return len(filtered), time.Duration(filtered[0] + int64(window) - now), nil
}

// Sweep drops keys with no hits inside window.
func (c *MemoryCounter) Sweep(window time.Duration) {
	cutoff := c.now().UnixNano() - int64(window)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, arr := range c.state {
		if len(arr) == 0 || arr[len(arr)-1] < cutoff {
			delete(c.state, k)
		}
	}
}

// RedisCounter is a fixed window shared by every instance behind the same
// Redis.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

func NewRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	k := c.prefix + ":" + key
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	remaining := ttl.Val()
	if remaining < 0 {
		if err := c.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		remaining = window
	}
	return int(incr.Val()), remaining, nil
}

// IPRateLimiter limits requests per client IP. X-Forwarded-For is honored
// only when the direct peer is a trusted proxy.
type IPRateLimiter struct {
	name        string
	limit       int
	window      time.Duration
	counter     Counter
	trustedCIDR []string
	log         *zap.Logger
}

func NewIPRateLimiter(name string, limit int, window time.Duration, counter Counter, trusted []string, log *zap.Logger) *IPRateLimiter {
	if counter == nil {
		counter = NewMemoryCounter()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IPRateLimiter{name: name, limit: limit, window: window, counter: counter, trustedCIDR: trusted, log: log}
}

// ClientIP returns the client IP string. If trustedCIDR is provided,
// X-Forwarded-For / X-Real-IP headers are honored when remote addr is inside
// one of the trusted CIDRs or IPs.
func ClientIP(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, _ := net.SplitHostPort(r.RemoteAddr)
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
				if remoteIP != nil && ipnet.Contains(remoteIP) {
					trusted = true
					break
				}
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && remoteIP != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware applies the limit and sets rate-limit headers. Counter errors
// let the request through.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	if l.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, l.trustedCIDR)
		count, retry, err := l.counter.Hit(r.Context(), l.name+":"+ip, l.window)
		if err != nil {
			l.log.Warn("rate limiter unavailable", zap.String("limiter", l.name), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		remaining := l.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", l.limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > l.limit {
			retryAfter := int(retry / time.Second)
			if retryAfter < 1 {
				retryAfter = 1 // At least 1 second
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
				Success: false,
				Message: "Terlalu banyak permintaan, Coba lagi nanti",
				Data:    map[string]interface{}{"retry_after_seconds": retryAfter},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
