package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/usaccidents/internal/config"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Password is deliberately not a flag. It comes from $US_ACCIDENTS_ADMIN_PASSWORD,
// $PGPASSWORD, ~/.pgpass or a connection string.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Database is excluded: -d may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags selects a cloud IAM authentication method from the command line.
type CloudFlags struct {
	AWS            bool
	AWSRegion      string
	Google         bool
	GoogleInstance string
	AzureTenantID  string
	AzureClientID  string
}

// EnvVars holds the environment variables consulted during resolution.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST              string
	PGPORT              string
	PGUSER              string
	PGPASSWORD          string
	PGDATABASE          string
	PGSSLMODE           string
	DATABASE_URL        string
	ConnString          string // USACCIDENTS_CONNECTION_STRING
	AdminPassword       string // US_ACCIDENTS_ADMIN_PASSWORD
	AWS_REGION          string
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads the PostgreSQL, loader and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		ConnString:          os.Getenv("USACCIDENTS_CONNECTION_STRING"),
		AdminPassword:       os.Getenv(usaccidents.PasswordEnvVar),
		AWS_REGION:          os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// password returns the loader password, falling back to $PGPASSWORD.
func (e *EnvVars) password() string {
	if e.AdminPassword != "" {
		return e.AdminPassword
	}
	return e.PGPASSWORD
}

// connString returns the environment connection string; DATABASE_URL wins.
func (e *EnvVars) connString() string {
	if e.DATABASE_URL != "" {
		return e.DATABASE_URL
	}
	return e.ConnString
}

// ResolveConnectionParams resolves connection parameters with this precedence:
//
//  1. --connection flag
//  2. $DATABASE_URL or $USACCIDENTS_CONNECTION_STRING, when no granular flags are given
//  3. Granular flags (-h, -p, -U, -d, --sslmode)
//  4. PG* environment variables
//  5. usaccidents.yaml
//  6. Defaults (localhost:5432, us_accidents, us_accidents_admin, sslmode=prefer)
//
// A password embedded in a connection string wins over the environment.
// Supplying both --connection and granular flags is an error.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*usaccidents.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://%s@localhost:5432/%s\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U %s -d %s: %w",
			usaccidents.DefaultUsername, usaccidents.DefaultDatabase,
			usaccidents.DefaultUsername, usaccidents.DefaultDatabase,
			usaccidents.ErrInvalidConfig,
		)
	}

	var cfg *usaccidents.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, granularFlags, envVars)
	case granularFlags.IsEmpty() && envVars.connString() != "":
		cfg, err = resolveFromConnectionString(envVars.connString(), granularFlags, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if err := applyAuthMethod(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}

	return cfg, nil
}

func resolveFromConnectionString(connStr string, flags *GranularConnFlags, envVars *EnvVars) (*usaccidents.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w: %w", usaccidents.ErrInvalidConfig, err)
	}

	if flags.Database != "" {
		cfg.Database = flags.Database
	}
	if cfg.Username == "" {
		cfg.Username = usaccidents.DefaultUsername
	}
	if cfg.Password == "" {
		cfg.Password = envVars.password()
	}

	return cfg, nil
}

// resolveFromGranularParams applies flag > PG* env > usaccidents.yaml > default per parameter.
func resolveFromGranularParams(flags *GranularConnFlags, envVars *EnvVars, pc config.ConnectionConfig) (*usaccidents.ConnectionConfig, error) {
	cfg := &usaccidents.ConnectionConfig{
		AuthMethod:       usaccidents.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, usaccidents.DefaultHost)

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, usaccidents.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = usaccidents.DefaultPort
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, usaccidents.DefaultUsername)
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database, usaccidents.DefaultDatabase)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, usaccidents.DefaultSSLMode)
	cfg.Password = envVars.password()

	return cfg, nil
}

// applyAuthMethod picks the authentication method: explicit cloud flags first,
// then auth_method from usaccidents.yaml, then Azure environment credentials.
func applyAuthMethod(cfg *usaccidents.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	selected := 0
	for _, on := range []bool{flags.AWS, flags.Google, flags.AzureTenantID != "" || flags.AzureClientID != ""} {
		if on {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("only one of --aws, --google or --azure-* may be given: %w", usaccidents.ErrInvalidConfig)
	}

	method, err := usaccidents.ParseAuthMethod(pc.AuthMethod)
	if err != nil {
		return err
	}

	switch {
	case flags.AWS:
		method = usaccidents.AuthMethodAWSIAM
	case flags.Google:
		method = usaccidents.AuthMethodGoogleIAM
	case flags.AzureTenantID != "" || flags.AzureClientID != "":
		method = usaccidents.AuthMethodAzureEntraID
	case method == usaccidents.AuthMethodStandard && (env.AZURE_TENANT_ID != "" || env.AZURE_CLIENT_ID != ""):
		method = usaccidents.AuthMethodAzureEntraID
	}

	cfg.AuthMethod = method
	switch method {
	case usaccidents.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
		cfg.Password = ""
	case usaccidents.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
		cfg.Password = ""
	case usaccidents.AuthMethodAzureEntraID:
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
		cfg.Password = ""
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
