package core

import (
	"embed"

	"github.com/iota-uz/orgtree/modules/core/infrastructure/persistence"
	"github.com/iota-uz/orgtree/modules/core/presentation/controllers"
	"github.com/iota-uz/orgtree/modules/core/services"
	"github.com/iota-uz/orgtree/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)

	app.RegisterServices(
		services.NewUserService(persistence.NewUserRepository()),
	)
	app.RegisterControllers(
		controllers.NewHealthController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "core"
}
