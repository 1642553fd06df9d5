package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anoixa/memlane/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, CredentialFrom(c))
	})
	router.GET("/test", handlers...)
	return router
}

func do(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCredentialForwardsToken(t *testing.T) {
	router := newRouter(Credential(""))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"no token", "Bearer", http.StatusBadRequest, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"opaque token", "Bearer opaque.token.value", http.StatusOK, "opaque.token.value"},
		{"lowercase scheme", "bearer abc", http.StatusOK, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestCredentialVerifiesSignature(t *testing.T) {
	secret := "s3cret"
	router := newRouter(Credential(secret))

	sign := func(key string, exp time.Time) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1",
			"exp": exp.Unix(),
		}).SignedString([]byte(key))
		require.NoError(t, err)
		return token
	}

	valid := sign(secret, time.Now().Add(time.Hour))
	w := do(router, "Bearer "+valid)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, valid, w.Body.String())

	w = do(router, "Bearer "+sign("other", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, "Bearer "+sign(secret, time.Now().Add(-time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimit{RPS: 1, Burst: 2, IdleTTL: time.Minute})
	defer limiter.Stop()
	router := newRouter(limiter.Handler())

	request := func(addr string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = addr + ":40000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, request("10.0.0.1").Code)
	limited := request("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2").Code, "separate bucket per address")
}

func TestRateLimiterIgnoresForwardedHeaderFromUntrustedPeer(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimit{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	defer limiter.Stop()
	router := newRouter(limiter.Handler())
	require.NoError(t, router.SetTrustedProxies(nil))

	request := func(forwarded string) int {
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, request("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("203.0.113.2"))
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimit{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	defer limiter.Stop()

	now := time.Now()
	limiter.allow("10.0.0.1", now.Add(-2*time.Minute))
	limiter.allow("10.0.0.2", now)

	limiter.sweep(now)

	assert.NotContains(t, limiter.visitors, "10.0.0.1")
	assert.Contains(t, limiter.visitors, "10.0.0.2")
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimit{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}
