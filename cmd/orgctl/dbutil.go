package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/orgtree/modules"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/configuration"
	"github.com/iota-uz/orgtree/pkg/eventbus"
)

func connectDB(ctx context.Context) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, configuration.Use().Database.Opts)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("db connect failed: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, withCode(exitDB, fmt.Errorf("db ping failed: %w", err))
	}
	return pool, nil
}

// session is a loaded application bound to a live pool. Services resolve
// their transaction from ctx.
type session struct {
	app  application.Application
	pool *pgxpool.Pool
	ctx  context.Context
}

func openSession(ctx context.Context) (*session, error) {
	pool, err := connectDB(ctx)
	if err != nil {
		return nil, err
	}
	conf := configuration.Use()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		pool.Close()
		return nil, fmt.Errorf("load modules: %w", err)
	}
	return &session{
		app:  app,
		pool: pool,
		ctx:  composables.WithPool(ctx, pool),
	}, nil
}

func (s *session) Close() {
	s.pool.Close()
}
