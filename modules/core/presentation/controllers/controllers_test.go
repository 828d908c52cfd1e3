package controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/core/presentation/controllers"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/httpapi"
)

type fakeCachedService struct{}

func (fakeCachedService) CacheBackend() string { return "memory" }

type healthBody struct {
	Status string                     `json:"status"`
	Checks map[string]json.RawMessage `json:"checks"`
}

func serveHealth(t *testing.T, app application.Application) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	r := mux.NewRouter()
	controllers.NewHealthController(app).Register(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body healthBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func TestHealthController_DatabaseUnavailable(t *testing.T) {
	app := application.New(&application.ApplicationOptions{})

	rr, body := serveHealth(t, app)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "down", body.Status)
	assert.Contains(t, body.Checks, "database")
	assert.NotContains(t, body.Checks, "redis")
	assert.NotContains(t, body.Checks, "cache")
}

func TestHealthController_ReportsRedisAndCacheBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	app := application.New(&application.ApplicationOptions{Redis: client})
	app.RegisterServices(&fakeCachedService{})

	_, body := serveHealth(t, app)
	require.Contains(t, body.Checks, "redis")
	require.Contains(t, body.Checks, "cache")

	var rd struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body.Checks["redis"], &rd))
	assert.NotEqual(t, "down", rd.Status)

	var cache struct {
		Details struct {
			Backends map[string]string `json:"backends"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(body.Checks["cache"], &cache))
	assert.Equal(t, map[string]string{"fakeCachedService": "memory"}, cache.Details.Backends)
}

func TestHealthController_RedisOutageDegrades(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	app := application.New(&application.ApplicationOptions{Redis: client})
	_, body := serveHealth(t, app)

	var rd struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body.Checks["redis"], &rd))
	assert.Equal(t, "degraded", rd.Status)
	assert.Contains(t, rd.Error, "redis ping failed")
}

func TestErrorHandlers(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/only-get", func(w http.ResponseWriter, r *http.Request) {}).Methods(http.MethodGet)
	r.NotFoundHandler = controllers.NotFound()
	r.MethodNotAllowedHandler = controllers.MethodNotAllowed()

	t.Run("NotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		req.Header.Set(httpapi.RequestIDHeader, "req-1")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		var env httpapi.ErrorEnvelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
		assert.Equal(t, "NOT_FOUND", env.Code)
		assert.Equal(t, "/missing", env.Meta["path"])
		assert.Equal(t, "req-1", env.Meta["request_id"])
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/only-get", nil))

		require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		var env httpapi.ErrorEnvelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
		assert.Equal(t, "METHOD_NOT_ALLOWED", env.Code)
		assert.Equal(t, http.MethodPost, env.Meta["method"])
	})
}
