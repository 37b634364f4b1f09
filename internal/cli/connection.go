package cli

import (
	"github.com/spf13/cobra"

	"github.com/vvka-141/usaccidents/internal/config"
	"github.com/vvka-141/usaccidents/internal/db"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// connectionFlags holds the connection-related flag values.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	aws            bool
	awsRegion      string
	google         bool
	googleInstance string
	azureTenantID  string
	azureClientID  string
}

// addConnectionFlags registers the connection flags on cmd, bound to f.
func addConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	flags := cmd.Flags()

	// Connection string flag (mutually exclusive with granular flags)
	flags.StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI or ADO.NET format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username, --sslmode).\n"+
			"Alternative: DATABASE_URL or USACCIDENTS_CONNECTION_STRING environment variable.\n"+
			"Example: postgresql://us_accidents_admin@localhost:5432/us_accidents")

	// Granular connection flags (PostgreSQL standard)
	// Precedence: flag > environment variable > usaccidents.yaml > default
	flags.StringVarP(&f.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > usaccidents.yaml > localhost")
	flags.IntVarP(&f.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > usaccidents.yaml > 5432")
	flags.StringVarP(&f.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER or us_accidents_admin)")
	flags.StringVarP(&f.database, "database", "d", "",
		"Target database (default: $PGDATABASE or us_accidents)\n"+
			"Overrides the database of a connection string")
	flags.StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")

	// Cloud IAM authentication
	flags.BoolVar(&f.aws, "aws", false,
		"Authenticate with an AWS RDS IAM token (default credential chain)")
	flags.StringVar(&f.awsRegion, "aws-region", "",
		"AWS region of the RDS instance (overrides $AWS_REGION)")
	flags.BoolVar(&f.google, "google", false,
		"Connect through the Cloud SQL connector with IAM authentication")
	flags.StringVar(&f.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name (project:region:instance)")
	flags.StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure Entra ID tenant ID (overrides $AZURE_TENANT_ID)")
	flags.StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure Entra ID client ID (overrides $AZURE_CLIENT_ID)")
}

// resolveConnectionFromFlags resolves the connection from flags, the
// environment and the project config.
func resolveConnectionFromFlags(flags connectionFlags, projectCfg *config.ProjectConfig) (*usaccidents.ConnectionConfig, error) {
	granularFlags := &db.GranularConnFlags{
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
	}

	cloudFlags := &db.CloudFlags{
		AWS:            flags.aws,
		AWSRegion:      flags.awsRegion,
		Google:         flags.google,
		GoogleInstance: flags.googleInstance,
		AzureTenantID:  flags.azureTenantID,
		AzureClientID:  flags.azureClientID,
	}

	return db.ResolveConnectionParams(
		flags.connection,
		granularFlags,
		cloudFlags,
		db.LoadFromEnvironment(),
		projectCfg,
	)
}

// logConnectionVerbose logs the resolved connection when verbose mode is enabled.
func logConnectionVerbose(logger usaccidents.Logger, connConfig *usaccidents.ConnectionConfig) {
	logger.Verbose("Connection resolved:")
	logger.Verbose("  Host: %s", connConfig.Host)
	logger.Verbose("  Port: %d", connConfig.Port)
	logger.Verbose("  User: %s", connConfig.Username)
	logger.Verbose("  Database: %s", connConfig.Database)
	logger.Verbose("  SSL Mode: %s", connConfig.SSLMode)
	logger.Verbose("  Auth Method: %s", connConfig.AuthMethod)
	logger.Verbose("  Connection: %s", db.RedactedConnectionString(connConfig))
}
