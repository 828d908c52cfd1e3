package itf

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/composables"
)

// TestContext provides a fluent API for building test contexts
type TestContext struct {
	ctx     context.Context
	user    user.User
	modules []application.Module
	dbName  string
}

func NewTestContext() *TestContext {
	return &TestContext{
		ctx:     context.Background(),
		modules: []application.Module{},
	}
}

func (tc *TestContext) WithModules(modules ...application.Module) *TestContext {
	tc.modules = append(tc.modules, modules...)
	return tc
}

func (tc *TestContext) WithUser(u user.User) *TestContext {
	tc.user = u
	return tc
}

// WithDBName overrides the database name derived from the test name.
func (tc *TestContext) WithDBName(name string) *TestContext {
	tc.dbName = name
	return tc
}

// Build creates a fresh database, migrates it and opens a transaction that
// is rolled back when the test finishes.
func (tc *TestContext) Build(tb testing.TB) *TestEnvironment {
	tb.Helper()

	if tc.dbName == "" {
		tc.dbName = tb.Name()
	}
	dsn := CreateDB(tb, tc.dbName)

	pool, err := NewPool(tc.ctx, dsn)
	if err != nil {
		tb.Fatal(err)
	}

	app, err := SetupApplication(tc.ctx, dsn, pool, tc.modules...)
	if err != nil {
		pool.Close()
		tb.Fatal(err)
	}

	tx, err := pool.Begin(tc.ctx)
	if err != nil {
		pool.Close()
		tb.Fatal(err)
	}

	ctx := composables.WithPool(tc.ctx, pool)
	ctx = composables.WithTx(ctx, tx)
	ctx = composables.WithParams(ctx, DefaultParams())
	if tc.user != nil {
		ctx = composables.WithUser(ctx, tc.user)
	}

	tb.Cleanup(func() {
		if err := tx.Rollback(context.Background()); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			tb.Logf("Warning: failed to rollback transaction: %v", err)
		}
		pool.Close()
	})

	return &TestEnvironment{
		Ctx:  ctx,
		Pool: pool,
		Tx:   tx,
		App:  app,
		User: tc.user,
	}
}

// TestEnvironment contains all test dependencies
type TestEnvironment struct {
	Ctx  context.Context
	Pool *pgxpool.Pool
	Tx   pgx.Tx
	App  application.Application
	User user.User
}

// GetService is a generic helper that retrieves and casts a service
func GetService[T any](te *TestEnvironment) *T {
	service := te.App.Service(*new(T))
	if service == nil {
		return nil
	}
	return service.(*T)
}

// Exec runs a fixture statement inside the test transaction.
func (te *TestEnvironment) Exec(tb testing.TB, sql string, args ...any) {
	tb.Helper()
	if _, err := te.Tx.Exec(te.Ctx, sql, args...); err != nil {
		tb.Fatalf("fixture %q failed: %v", sql, err)
	}
}
