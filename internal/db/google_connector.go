package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// GoogleCloudSQLConnector connects to Cloud SQL with IAM database authentication
// through the Cloud SQL Go Connector.
//
// Close must be called after the pool returned by Connect is closed.
type GoogleCloudSQLConnector struct {
	config   *usaccidents.ConnectionConfig
	instance string
	logger   usaccidents.Logger
	dialer   *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector takes the instance connection name as project:region:instance.
func NewGoogleCloudSQLConnector(config *usaccidents.ConnectionConfig, instance string, logger usaccidents.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:   config,
		instance: instance,
		logger:   logger,
	}
}

func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w: %w", usaccidents.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf("user=%s dbname=%s sslmode=disable", c.config.Username, c.config.Database)
	if c.config.AppName != "" {
		dsn += " application_name=" + c.config.AppName
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}

	configurePool(poolConfig, c.logger)
	c.logger.Verbose("Connecting to Cloud SQL instance %s as %s", c.instance, c.config.Username)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to connect to database: %w: %w", usaccidents.ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		dialer.Close()
		return nil, fmt.Errorf("failed to ping database: %w: %w", usaccidents.ErrConnectionFailed, err)
	}

	c.dialer = dialer
	return pool, nil
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}
