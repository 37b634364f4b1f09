// Package testinfra starts throwaway PostgreSQL servers for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// The container is provisioned like a production target: the loader role
// owns the us_accidents database.
const (
	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = usaccidents.DefaultUsername
	PostgresPassword = "us_accidents_test"
	PostgresDB       = usaccidents.DefaultDatabase
)

// PostgresContainer is a running server and a superuser connection string to it.
type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartSimplePostgres runs a plain PostgreSQL container without TLS.
// ConnString points at PostgresDB as PostgresUser, a superuser that may create databases.
func StartSimplePostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			// The entrypoint restarts the server once after init scripts.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", PostgresImage, err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable", "application_name="+usaccidents.AppNamePrefix+"-tests")
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, fmt.Errorf("container connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}
