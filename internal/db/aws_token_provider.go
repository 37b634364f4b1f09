package db

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/jonboulle/clockwork"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// rdsTokenLifetime is how long an RDS IAM auth token stays valid.
const rdsTokenLifetime = 15 * time.Minute

// AWSIAMTokenProvider signs RDS IAM auth tokens with the default AWS credential chain.
type AWSIAMTokenProvider struct {
	endpoint string // host:port
	region   string
	username string
	clock    clockwork.Clock
}

// NewAWSIAMTokenProvider validates the RDS target. Missing values are ErrInvalidConfig.
func NewAWSIAMTokenProvider(endpoint, region, username string) (*AWSIAMTokenProvider, error) {
	switch {
	case endpoint == "":
		return nil, fmt.Errorf("AWS IAM auth requires the RDS endpoint (host:port): %w", usaccidents.ErrInvalidConfig)
	case region == "":
		return nil, fmt.Errorf("AWS IAM auth requires a region (--aws-region, $AWS_REGION or aws_region in %s): %w",
			"usaccidents.yaml", usaccidents.ErrInvalidConfig)
	case username == "":
		return nil, fmt.Errorf("AWS IAM auth requires a database user (-U): %w", usaccidents.ErrInvalidConfig)
	}

	return &AWSIAMTokenProvider{
		endpoint: endpoint,
		region:   region,
		username: username,
		clock:    clockwork.NewRealClock(),
	}, nil
}

// GetToken signs a fresh token. Signing is local; only credential
// resolution may reach the network.
func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(p.region))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load AWS config for region %s: %w", p.region, err)
	}

	issued := p.clock.Now()
	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, cfg.Credentials)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign RDS auth token for %s@%s: %w", p.username, p.endpoint, err)
	}

	return token, issued.Add(rdsTokenLifetime), nil
}

func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("rds-iam %s@%s (%s)", p.username, p.endpoint, p.region)
}
