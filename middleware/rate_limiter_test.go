package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP_DirectRemote(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "203.0.113.5:54321"
	ip := ClientIP(req, nil)
	if ip != "203.0.113.5" {
		t.Fatalf("expected direct remote IP, got %s", ip)
	}
}

func TestClientIP_TrustedProxyXFF(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "198.51.100.10:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.10")
	// trustedCIDR contains the remote IP
	ip := ClientIP(req, []string{"198.51.100.10"})
	if ip != "203.0.113.7" {
		t.Fatalf("expected X-Forwarded-For first value, got %s", ip)
	}
}

func TestClientIP_TrustedCIDRRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "10.0.0.8:443"
	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", ClientIP(req, []string{"10.0.0.0/8"}))
}

func TestClientIP_UntrustedProxyIgnoresXFF(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "198.51.100.11:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.8, 198.51.100.11")
	ip := ClientIP(req, []string{"198.51.100.10"})
	if ip != "198.51.100.11" {
		t.Fatalf("expected remote IP when proxy untrusted, got %s", ip)
	}
}

func TestIPRateLimiter_BlocksAfterLimit(t *testing.T) {
	limiter := NewIPRateLimiter("spin", 2, time.Minute, nil, nil, nil)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	hit := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/spin", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, hit("203.0.113.1:1").Code)
	second := hit("203.0.113.1:2")
	assert.Equal(t, http.StatusNoContent, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := hit("203.0.113.1:3")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "Terlalu banyak permintaan")

	assert.Equal(t, http.StatusNoContent, hit("203.0.113.2:1").Code)
}

func TestMemoryCounter_WindowSlides(t *testing.T) {
	c := NewMemoryCounter()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	n, _, _ := c.Hit(ctx, "k", time.Minute)
	assert.Equal(t, 1, n)
	now = now.Add(30 * time.Second)
	n, retry, _ := c.Hit(ctx, "k", time.Minute)
	assert.Equal(t, 2, n)
	assert.Equal(t, 30*time.Second, retry)

	now = now.Add(45 * time.Second)
	n, _, _ = c.Hit(ctx, "k", time.Minute)
	assert.Equal(t, 2, n)

	now = now.Add(2 * time.Minute)
	c.Sweep(time.Minute)
	assert.Empty(t, c.state)
}

type failingCounter struct{}

func (failingCounter) Hit(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, assert.AnError
}

func TestIPRateLimiter_FailsOpen(t *testing.T) {
	limiter := NewIPRateLimiter("register", 1, time.Minute, failingCounter{}, nil, nil)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/register", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRedisCounter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	c := NewRedisCounter(client, "test-"+time.Now().Format("150405.000000"))
	n, ttl, err := c.Hit(ctx, "ip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Greater(t, ttl, time.Duration(0))

	n, _, err = c.Hit(ctx, "ip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
