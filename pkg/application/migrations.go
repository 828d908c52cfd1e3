package application

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"github.com/go-faster/errors"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func NewMigrationManager() MigrationManager {
	return &migrationManager{}
}

type migrationManager struct {
	schemas []*embed.FS
}

func (m *migrationManager) RegisterSchema(fs ...*embed.FS) {
	m.schemas = append(m.schemas, fs...)
}

func (m *migrationManager) Schemas() []*embed.FS {
	return m.schemas
}

// schemaDir is where every module keeps its goose files inside its embed.FS.
const schemaDir = "infrastructure/persistence/schema"

// RunMigrations applies the registered schemas in registration order.
// Version numbers are global across modules.
func RunMigrations(ctx context.Context, dsn string, manager MigrationManager) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return errors.Wrap(err, "open migrations connection")
	}
	defer db.Close()
	return migrate(ctx, db, manager.Schemas(), func(ctx context.Context, db *sql.DB) error {
		return goose.UpContext(ctx, db, schemaDir, goose.WithAllowMissing())
	})
}

// RollbackMigration undoes the most recently applied migration.
func RollbackMigration(ctx context.Context, dsn string, manager MigrationManager) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return errors.Wrap(err, "open migrations connection")
	}
	defer db.Close()

	schemas := manager.Schemas()
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}
	for _, schema := range schemas {
		owns, err := ownsVersion(schema, current)
		if err != nil {
			return err
		}
		if !owns {
			continue
		}
		return migrate(ctx, db, []*embed.FS{schema}, func(ctx context.Context, db *sql.DB) error {
			return goose.DownContext(ctx, db, schemaDir)
		})
	}
	return errors.Errorf("no registered schema owns version %d", current)
}

func migrate(ctx context.Context, db *sql.DB, schemas []*embed.FS, run func(context.Context, *sql.DB) error) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)
	for _, schema := range schemas {
		goose.SetBaseFS(schema)
		if err := run(ctx, db); err != nil {
			return errors.Wrap(err, "apply migrations")
		}
	}
	return nil
}

func ownsVersion(schema fs.FS, version int64) (bool, error) {
	entries, err := fs.ReadDir(schema, schemaDir)
	if err != nil {
		return false, errors.Wrap(err, "read schema dir")
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		v, err := goose.NumericComponent(entry.Name())
		if err != nil {
			continue
		}
		if v == version {
			return true, nil
		}
	}
	return false, nil
}
