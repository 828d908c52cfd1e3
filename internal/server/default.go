package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/iota-uz/orgtree/modules/core/presentation/controllers"
	coreservices "github.com/iota-uz/orgtree/modules/core/services"
	orgservices "github.com/iota-uz/orgtree/modules/org/services"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/configuration"
	"github.com/iota-uz/orgtree/pkg/constants"
	"github.com/iota-uz/orgtree/pkg/metrics"
	"github.com/iota-uz/orgtree/pkg/middleware"
	"github.com/iota-uz/orgtree/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	return redis.NewClient(opts)
}

// Default assembles the middleware chain around the registered modules.
// Modules must be loaded before it is called.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, middleware.LoggerOptions{
			RequestIDHeader: conf.RequestIDHeader,
			RealIPHeader:    conf.RealIPHeader,
		}),

		middleware.TracedMiddleware("database"),
		middleware.Provide(constants.PoolKey, options.Pool),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.CorsAllowedOrigins()...),
	}

	if conf.RateLimit.Enabled {
		var store limiter.Store
		var err error

		switch conf.RateLimit.Storage {
		case "redis":
			store, err = middleware.NewRedisStore(conf.RateLimit.RedisURL)
			if err != nil {
				options.Logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
				store = middleware.NewMemoryStore()
			}
		default:
			store = middleware.NewMemoryStore()
		}

		middlewares = append(middlewares,
			middleware.TracedMiddleware("rateLimit"),
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.GlobalRPS,
				Store:             store,
			}),
		)
	}

	userService := app.Service(coreservices.UserService{}).(*coreservices.UserService)
	labelService := app.Service(orgservices.LabelService{}).(*orgservices.LabelService)
	middlewares = append(middlewares,
		middleware.TracedMiddleware("authenticate"),
		middleware.Authenticate(userService, middleware.AuthOptions{
			SigningKey: []byte(conf.Auth.SigningKey),
			Issuer:     conf.Auth.Issuer,
		}),
		middleware.TracedMiddleware("labels"),
		middleware.ProvideLabels(labelService),
	)

	app.RegisterMiddleware(middlewares...)

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path, prometheus.DefaultGatherer))
	}

	return server.NewHTTPServer(
		app,
		controllers.NotFound(),
		controllers.MethodNotAllowed(),
	), nil
}
