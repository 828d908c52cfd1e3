package itf

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgtree/modules"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/eventbus"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Minute * 5
	config.MaxConnIdleTime = time.Second * 30
	return pgxpool.NewWithConfig(ctx, config)
}

func DefaultParams() *composables.Params {
	return &composables.Params{
		Authenticated: true,
	}
}

const (
	// PostgreSQL database name maximum length is 63 characters
	maxDBNameLength = 63
	// 8 hex chars + underscore
	hashSuffixLength = 9
)

// sanitizeDBName turns a test name into a valid PostgreSQL database name
// no longer than 63 characters.
func sanitizeDBName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(name)))[:8]
	return sanitized[:maxDBNameLength-hashSuffixLength] + "_" + hash
}

// CreateDB recreates database name inside the shared test container and
// returns its DSN.
func CreateDB(tb testing.TB, name string) string {
	tb.Helper()
	admin := adminDSN(tb)
	dbName := sanitizeDBName(name)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, err := pgx.Connect(ctx, admin)
	if err != nil {
		tb.Fatalf("failed to connect to admin database: %v", err)
	}
	defer func() {
		_ = conn.Close(context.Background())
	}()

	ident := pgx.Identifier{dbName}.Sanitize()
	if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+ident); err != nil {
		tb.Fatalf("failed to drop database %s: %v", dbName, err)
	}
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
		tb.Fatalf("failed to create database %s: %v", dbName, err)
	}

	dsn, err := withDatabase(admin, dbName)
	if err != nil {
		tb.Fatal(err)
	}
	return dsn
}

// SetupApplication loads the given modules and applies their migrations
// to the database at dsn.
func SetupApplication(ctx context.Context, dsn string, pool *pgxpool.Pool, mods ...application.Module) (application.Application, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, mods...); err != nil {
		return nil, err
	}
	if err := application.RunMigrations(ctx, dsn, app.Migrations()); err != nil {
		return nil, err
	}
	return app, nil
}
