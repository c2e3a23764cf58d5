package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"todoTracker/internal/repository/repotest"
	"todoTracker/internal/repository/task/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite runs the shared repository behaviour against a real
// PostgreSQL in a container.
type PostgresTestSuite struct {
	repotest.TaskRepoSuite
	container  testcontainers.Container
	storage    *postgres.Storage
	connString string
}

func (s *PostgresTestSuite) SetupSuite() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(s.T(), err)
	s.connString = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	require.NoError(s.T(), postgres.MigrateUp(s.connString))

	s.storage, err = postgres.New(ctx, postgres.Config{URL: s.connString, ConnectRetries: 5})
	require.NoError(s.T(), err)

	s.Repo = s.storage
	s.Reset = s.truncate
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresTestSuite) truncate() error {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, s.connString)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "TRUNCATE tasks")
	return err
}

func (s *PostgresTestSuite) TestMigrationsAreIdempotent() {
	s.Require().NoError(postgres.MigrateUp(s.connString))
}

func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(PostgresTestSuite))
}
