package modules

import (
	"github.com/iota-uz/orgtree/modules/core"
	"github.com/iota-uz/orgtree/modules/org"
	"github.com/iota-uz/orgtree/pkg/application"
)

// BuiltInModules are registered in order. The org schema references users,
// so core comes first.
var BuiltInModules = []application.Module{
	core.NewModule(),
	org.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
