package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_Memory(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerPeriod: 2, Store: NewMemoryStore()})(okHandler())

	assert.Equal(t, http.StatusOK, hit(h))
	assert.Equal(t, http.StatusOK, hit(h))
	assert.Equal(t, http.StatusTooManyRequests, hit(h))
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerPeriod: 0})(okHandler())
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, hit(h))
	}
}

func TestRateLimit_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)

	h := RateLimit(RateLimitConfig{RequestsPerPeriod: 1, Store: store})(okHandler())

	assert.Equal(t, http.StatusOK, hit(h))
	assert.Equal(t, http.StatusTooManyRequests, hit(h))
}
