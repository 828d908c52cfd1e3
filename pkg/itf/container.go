package itf

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const postgresImage = "postgres:16-alpine"

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// adminDSN starts a single Postgres container per test binary and returns
// the DSN of its maintenance database. The container is reaped by
// testcontainers once the binary exits. Tests are skipped when no container
// runtime is available.
func adminDSN(tb testing.TB) string {
	tb.Helper()
	containerOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		provider, err := testcontainers.ProviderDocker.GetProvider()
		if err != nil {
			containerErr = err
			return
		}
		defer provider.Close()

		container, err := postgres.Run(
			ctx,
			postgresImage,
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			containerErr = err
			return
		}
		containerDSN, containerErr = container.ConnectionString(ctx, "sslmode=disable")
	})
	if containerErr != nil {
		tb.Skipf("postgres container unavailable: %v", containerErr)
	}
	return containerDSN
}

// withDatabase returns dsn pointing at database name.
func withDatabase(dsn, name string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	u.Path = "/" + name
	return u.String(), nil
}
