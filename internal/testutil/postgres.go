// Package testutil provides test helpers including container management
// and test client utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ravenfell/server/internal/config"
	"github.com/ravenfell/server/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	pc := startPostgres(t)
	t.Cleanup(func() {
		pc.Pool.Close()
		_ = pc.container.Terminate(context.Background())
	})
	return pc
}

func startPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	return &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}
}

// ApplyMigrations runs the schema creation SQL directly for tests.
// This avoids requiring the migrate tool in the test environment.
//
// Precondition: Pool must be connected.
// Postcondition: The account, character, and passive progress tables exist
// in the test database.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE TABLE IF NOT EXISTS accounts (
			id            UUID         PRIMARY KEY,
			username      VARCHAR(64)  NOT NULL UNIQUE,
			password_hash TEXT         NOT NULL,
			twitch_id     VARCHAR(64)  NOT NULL DEFAULT '',
			role          VARCHAR(16)  NOT NULL DEFAULT 'player',
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts (username);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_twitch_id
			ON accounts (twitch_id) WHERE twitch_id <> '';

		CREATE TABLE IF NOT EXISTS characters (
			id              UUID         PRIMARY KEY,
			account_id      UUID         NOT NULL REFERENCES accounts (id) ON DELETE CASCADE,
			name            VARCHAR(32)  NOT NULL UNIQUE,
			class_id        VARCHAR(64)  NOT NULL,
			level           INT          NOT NULL DEFAULT 1,
			xp              INT          NOT NULL DEFAULT 0,
			hp              INT          NOT NULL,
			gold            INT          NOT NULL DEFAULT 0,
			skill_points    INT          NOT NULL DEFAULT 0,
			hardcore        BOOLEAN      NOT NULL DEFAULT FALSE,
			location        VARCHAR(64)  NOT NULL DEFAULT 'town',
			equipment       JSONB        NOT NULL DEFAULT '{}',
			inventory       JSONB        NOT NULL DEFAULT '{}',
			skill_cooldowns JSONB        NOT NULL DEFAULT '{}',
			global_cooldown INT          NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_characters_account_id ON characters (account_id);

		CREATE TABLE IF NOT EXISTS passive_progress (
			account_id    UUID        PRIMARY KEY REFERENCES accounts (id) ON DELETE CASCADE,
			levels        JSONB       NOT NULL DEFAULT '{}',
			souls         INT         NOT NULL DEFAULT 0,
			legacy_points INT         NOT NULL DEFAULT 0,
			souls_spent   INT         NOT NULL DEFAULT 0,
			legacy_spent  INT         NOT NULL DEFAULT 0,
			total_deaths  INT         NOT NULL DEFAULT 0,
			highest_level INT         NOT NULL DEFAULT 0,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`

	_, err := pc.RawPool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied [%s]", time.Since(start))
}

var (
	sharedOnce sync.Once
	sharedPool *pgxpool.Pool
)

// NewPool returns a connection pool to a migrated PostgreSQL test database.
// The container is started once and shared across tests in the process; the
// testcontainers reaper tears it down when the test binary exits. Tests
// running with -short are skipped.
//
// Precondition: Docker must be available.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	sharedOnce.Do(func() {
		pc := startPostgres(t)
		pc.ApplyMigrations(t)
		sharedPool = pc.RawPool
	})
	if sharedPool == nil {
		t.Fatal("shared postgres container failed to start in an earlier test")
	}
	return sharedPool
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.Config.User, pc.Config.Password,
		pc.Config.Host, pc.Config.Port,
		pc.Config.Name, pc.Config.SSLMode,
	)
}
