package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/usaccidents/internal/retry"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// Pool sizing. A load holds one connection for COPY and one for DDL at most.
const (
	DefaultMaxConns        = 2
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger usaccidents.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

func newRetryExecutor(logger usaccidents.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(usaccidents.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(usaccidents.DefaultRetryInitialDelay),
		retry.WithMaxDelay(usaccidents.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Info("Connection attempt %d failed, retrying in %v: %v", attempt+1, delay, err)
		})
}

// openPool parses connStr, opens a pool and pings it.
func openPool(ctx context.Context, connStr string, config *usaccidents.ConnectionConfig, logger usaccidents.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig, logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return pool, nil
}

// StandardConnector connects with a username and an optional password.
// Transient failures are retried; an absent password leaves pgx to consult ~/.pgpass.
type StandardConnector struct {
	config        *usaccidents.ConnectionConfig
	logger        usaccidents.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *usaccidents.ConnectionConfig, logger usaccidents.Logger) *StandardConnector {
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

// Connect establishes a connection pool using standard authentication with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)
	c.logger.Verbose("Connecting to %s", RedactedConnectionString(c.config))

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, connStr, c.config, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}

// NewConnectorFactory returns a usaccidents.ConnectorFactory whose connectors log through logger.
func NewConnectorFactory(logger usaccidents.Logger) usaccidents.ConnectorFactory {
	return func(config *usaccidents.ConnectionConfig) (usaccidents.Connector, error) {
		return NewConnector(config, logger)
	}
}

// NewConnector creates the Connector matching the ConnectionConfig's AuthMethod.
func NewConnector(config *usaccidents.ConnectionConfig, logger usaccidents.Logger) (usaccidents.Connector, error) {
	switch config.AuthMethod {
	case usaccidents.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case usaccidents.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case usaccidents.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case usaccidents.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, usaccidents.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result always wraps usaccidents.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var hint string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		hint = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		hint = fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable`, host)

	case strings.Contains(errStr, "password authentication failed"):
		hint = fmt.Sprintf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $%s, $PGPASSWORD or ~/.pgpass)
  - Wrong username (default is %s)`, database, usaccidents.PasswordEnvVar, usaccidents.DefaultUsername)

	case strings.Contains(errStr, "does not exist"):
		hint = fmt.Sprintf(`database "%s" does not exist

The loader does not create databases. To create it:
  createdb -O %s %s`, database, usaccidents.DefaultUsername, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		hint = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		hint = `SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)`

	default:
		return fmt.Errorf("failed to connect to database: %w: %w", usaccidents.ErrConnectionFailed, err)
	}

	return fmt.Errorf("%s\n\n%w: %w", hint, usaccidents.ErrConnectionFailed, err)
}

func newAWSConnector(config *usaccidents.ConnectionConfig, logger usaccidents.Logger) (usaccidents.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

func newGoogleConnector(config *usaccidents.ConnectionConfig, logger usaccidents.Logger) (usaccidents.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", usaccidents.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", usaccidents.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}

// newAzureConnector uses Service Principal auth when tenant, client and secret are all set,
// and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *usaccidents.ConnectionConfig, logger usaccidents.Logger) (usaccidents.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
