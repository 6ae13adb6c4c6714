//go:build integration

// Package testsupport starts disposable PostgreSQL and Redis containers for the integration tests.
package testsupport

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/database"
)

const (
	postgresUser     = "clover"
	postgresPassword = "clover"
	PostgresDatabase = "clover"
)

// Logger discards everything
func Logger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func start(t *testing.T, req testcontainers.ContainerRequest, port string) (string, int) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start %s", req.Image)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	p, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)
	return host, p
}

// Postgres starts postgres:15-alpine and returns an open connection to it
func Postgres(t *testing.T) *database.DatabaseInstance {
	t.Helper()

	host, port := start(t, testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       PostgresDatabase,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, database.ConnectionConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            fmt.Sprint(port),
		User:            postgresUser,
		Password:        postgresPassword,
		Name:            PostgresDatabase,
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	}, Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MigratedPostgres starts PostgreSQL and applies the migrations found at folder
func MigratedPostgres(t *testing.T, folder string) *database.DatabaseInstance {
	t.Helper()

	db := Postgres(t)
	migrations := database.NewMigrationService(Logger(), &database.MigrationConfig{MigrationFolderPath: folder})
	require.NoError(t, migrations.MigratePostgres(db.DB.DB, PostgresDatabase))
	return db
}

// Redis starts redis:7-alpine and returns a connected store
func Redis(t *testing.T) *cache.RedisStore {
	t.Helper()

	host, port := start(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	}, "6379")

	store, err := cache.NewRedisStore(context.Background(), cache.RedisConfig{Host: host, Port: port}, Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
