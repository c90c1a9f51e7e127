package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.counts == nil {
		m.counts = make(map[string]int64)
	}
	m.counts[key]++
	return m.counts[key], nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/*path", ok)
	r.POST("/*path", ok)
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	counter := &memCounter{}
	r := newEngine(RateLimitMiddleware(counter, DefaultRateLimitConfig(2)))

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/posts/new").Code)
	w := serve(r, http.MethodPost, "/posts/new")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(r, http.MethodPost, "/auth/login")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// reads are never limited
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/posts").Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	counter := &memCounter{err: errors.New("redis down")}
	r := newEngine(RateLimitMiddleware(counter, DefaultRateLimitConfig(1)))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/x").Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	r := newEngine(RateLimitMiddleware(nil, DefaultRateLimitConfig(1)))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/x").Code)
	}
}

func TestRedirectMiddleware(t *testing.T) {
	r := newEngine(RedirectMiddleware(LegacyRedirects))

	tests := []struct {
		method string
		target string
		code   int
		loc    string
	}{
		{http.MethodGet, "/login", http.StatusMovedPermanently, "/auth/login"},
		{http.MethodGet, "/login?redirectTo=%2Fposts", http.StatusMovedPermanently, "/auth/login?redirectTo=%2Fposts"},
		{http.MethodGet, "/register", http.StatusMovedPermanently, "/auth/login"},
		{http.MethodGet, "/loginx", http.StatusNoContent, ""},
		{http.MethodGet, "/auth/login", http.StatusNoContent, ""},
		{http.MethodPost, "/login", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := serve(r, tt.method, tt.target)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.loc, w.Header().Get("Location"))
		})
	}
}

func TestRequestCounter(t *testing.T) {
	counter := atomic.NewInt64(0)
	r := newEngine(RequestCounter(counter))
	for i := 0; i < 4; i++ {
		serve(r, http.MethodGet, "/")
	}
	assert.Equal(t, int64(4), counter.Load())
}
