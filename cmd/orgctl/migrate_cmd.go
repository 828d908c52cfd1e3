package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgtree/modules"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := migrationManager()
			if err != nil {
				return err
			}
			if err := application.RunMigrations(cmd.Context(), configuration.Use().Database.Opts, manager); err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]string{"command": "migrate up", "status": "ok"})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := migrationManager()
			if err != nil {
				return err
			}
			if err := application.RollbackMigration(cmd.Context(), configuration.Use().Database.Opts, manager); err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]string{"command": "migrate down", "status": "ok"})
		},
	})
	return cmd
}

// migrationManager collects the schemas without connecting; registering a
// module only records its embedded files and constructors.
func migrationManager() (application.MigrationManager, error) {
	app := application.New(&application.ApplicationOptions{Logger: configuration.Use().Logger()})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		return nil, err
	}
	return app.Migrations(), nil
}
