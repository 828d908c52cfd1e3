package org

import (
	"embed"

	"github.com/iota-uz/orgtree/modules/org/handlers"
	"github.com/iota-uz/orgtree/modules/org/infrastructure/cache"
	"github.com/iota-uz/orgtree/modules/org/infrastructure/persistence"
	"github.com/iota-uz/orgtree/modules/org/presentation/controllers"
	"github.com/iota-uz/orgtree/modules/org/services"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	orgRepo := persistence.NewOrganizationRepository()
	labelsRepo := persistence.NewLabelsRepository()

	labelService := services.NewLabelService(orgRepo, labelsRepo, newLabelCache(app))
	app.RegisterServices(
		services.NewOrganizationService(orgRepo, labelsRepo, app.EventPublisher()),
		labelService,
	)
	handlers.RegisterLabelCacheHandlers(app, labelService)

	app.RegisterControllers(
		controllers.NewOrganizationsController(app),
		controllers.NewOrganizationAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "org"
}

// newLabelCache picks the configured backend. Redis falls back to memory
// when the application has no client.
func newLabelCache(app application.Application) services.LabelCache {
	opts := configuration.Use().Labels
	if opts.CacheBackend == configuration.CacheBackendRedis {
		if client := app.Redis(); client != nil {
			return cache.NewRedisCache(client, opts.CacheTTL)
		}
		app.Logger().Warn("labels cache backend is redis but no client is configured, using memory")
	}
	return cache.NewMemoryCache(opts.CacheSize, opts.CacheTTL)
}
