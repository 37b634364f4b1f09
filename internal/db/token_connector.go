package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/usaccidents/internal/retry"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// tokenExpiryWarning is the remaining lifetime below which a token is reported.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector authenticates with a short-lived cloud token used as the password
// (AWS RDS IAM, Azure Entra ID). A fresh token is acquired for every attempt.
type TokenBasedConnector struct {
	config        *usaccidents.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
	logger        usaccidents.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName appears in log and error messages (e.g. "AWS IAM", "Azure").
func NewTokenBasedConnector(config *usaccidents.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger usaccidents.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newRetryExecutor(logger),
		providerName:  providerName,
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	c.logger.Verbose("Connecting with %s", c.tokenProvider)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, usaccidents.ErrConnectionFailed, err)
		}

		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
		}

		configWithToken := *c.config
		configWithToken.Password = token

		pool, err = openPool(ctx, BuildConnectionString(&configWithToken), c.config, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}
