package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/httpapi"
)

type healthStatus string

const (
	healthStatusHealthy  healthStatus = "healthy"
	healthStatusDegraded healthStatus = "degraded"
	healthStatusDown     healthStatus = "down"
)

const (
	healthCheckTimeout      = 5 * time.Second
	dbDegradedLatency       = 100 * time.Millisecond
	redisDegradedLatency    = 50 * time.Millisecond
	healthTimestampTemplate = time.RFC3339
)

type healthResponse struct {
	Status    healthStatus   `json:"status"`
	Timestamp string         `json:"timestamp"`
	Checks    map[string]any `json:"checks"`
}

type componentHealth struct {
	Status       healthStatus   `json:"status"`
	ResponseTime string         `json:"responseTime,omitempty"`
	Error        string         `json:"error,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// cacheReporter is implemented by services that keep a configurable cache.
type cacheReporter interface {
	CacheBackend() string
}

type HealthController struct {
	app      application.Application
	basePath string
}

func NewHealthController(app application.Application) application.Controller {
	return &HealthController{
		app:      app,
		basePath: "/health",
	}
}

func (c *HealthController) Key() string {
	return c.basePath
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc(c.basePath, c.Get).Methods(http.MethodGet)
}

func (c *HealthController) Get(w http.ResponseWriter, r *http.Request) {
	response := c.performChecks(r.Context())

	status := http.StatusOK
	if response.Status == healthStatusDown {
		status = http.StatusServiceUnavailable
	}
	_ = httpapi.WriteJSON(w, status, response)
}

func (c *HealthController) performChecks(ctx context.Context) healthResponse {
	checks := make(map[string]any)
	overall := healthStatusHealthy

	db := c.checkDatabase(ctx)
	checks["database"] = db
	overall = mergeHealthStatus(overall, db.Status)

	if c.app.Redis() != nil {
		rd := c.checkRedis(ctx)
		checks["redis"] = rd
		overall = mergeHealthStatus(overall, rd.Status)
	}

	if backends := c.cacheBackends(); len(backends) > 0 {
		checks["cache"] = componentHealth{
			Status:  healthStatusHealthy,
			Details: map[string]any{"backends": backends},
		}
	}

	return healthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(healthTimestampTemplate),
		Checks:    checks,
	}
}

func mergeHealthStatus(current, next healthStatus) healthStatus {
	if next == healthStatusDown {
		return healthStatusDown
	}
	if next == healthStatusDegraded && current == healthStatusHealthy {
		return healthStatusDegraded
	}
	return current
}

func (c *HealthController) checkDatabase(ctx context.Context) componentHealth {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	db := c.app.DB()
	if db == nil {
		return componentHealth{
			Status:       healthStatusDown,
			ResponseTime: time.Since(start).String(),
			Error:        "database connection pool not available",
		}
	}

	var result int
	err := db.QueryRow(timeoutCtx, "SELECT 1").Scan(&result)
	responseTime := time.Since(start)
	if err != nil {
		return componentHealth{
			Status:       healthStatusDown,
			ResponseTime: responseTime.String(),
			Error:        fmt.Sprintf("database query failed: %v", err),
		}
	}

	status := healthStatusHealthy
	if responseTime > dbDegradedLatency {
		status = healthStatusDegraded
	}
	stats := db.Stat()
	return componentHealth{
		Status:       status,
		ResponseTime: responseTime.String(),
		Details: map[string]any{
			"totalConns":    stats.TotalConns(),
			"idleConns":     stats.IdleConns(),
			"acquiredConns": stats.AcquiredConns(),
		},
	}
}

// checkRedis never reports down: Redis only holds caches and rate limit
// counters.
func (c *HealthController) checkRedis(ctx context.Context) componentHealth {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	err := c.app.Redis().Ping(timeoutCtx).Err()
	responseTime := time.Since(start)
	if err != nil {
		return componentHealth{
			Status:       healthStatusDegraded,
			ResponseTime: responseTime.String(),
			Error:        fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	status := healthStatusHealthy
	if responseTime > redisDegradedLatency {
		status = healthStatusDegraded
	}
	return componentHealth{
		Status:       status,
		ResponseTime: responseTime.String(),
	}
}

func (c *HealthController) cacheBackends() map[string]string {
	out := make(map[string]string)
	for t, svc := range c.app.Services() {
		if reporter, ok := svc.(cacheReporter); ok {
			out[t.Name()] = reporter.CacheBackend()
		}
	}
	return out
}
