package usaccidents

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Load completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (invalid args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration
	ExitConnectionError  = 11 // Failed to connect to database
	ExitArchiveMissing   = 12 // Source archive (or the CSV inside it) not found
	ExitMalformedCSV     = 13 // CSV header or row could not be decoded
	ExitWriteFailed      = 14 // Table creation or COPY failed
	ExitConstraintFailed = 15 // Uniqueness or foreign-key constraint could not be added
)

// Source data defaults. Paths are relative to the working directory.
const (
	DefaultDataDir     = "data"
	DefaultArchiveName = "us-accidents.zip"
	DefaultCSVName     = "US_Accidents_March23.csv"
)

// Connection defaults for the accidents database.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 5432
	DefaultDatabase = "us_accidents"
	DefaultUsername = "us_accidents_admin"
	DefaultSSLMode  = "prefer"

	// PasswordEnvVar holds the admin password. When unset the connection is
	// attempted without a password and pgx falls back to ~/.pgpass.
	PasswordEnvVar = "US_ACCIDENTS_ADMIN_PASSWORD"

	// AppNamePrefix prefixes the per-run application_name shown in pg_stat_activity.
	AppNamePrefix = "usaccidents"
)

// Output table names.
const (
	CitiesTable    = "cities"
	AccidentsTable = "accidents"
)

const (
	// DefaultTimeout bounds a whole load run.
	DefaultTimeout = 2 * time.Hour

	// DefaultRetryInitialDelay is the default initial delay before the first connection retry.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection retries.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of connection retries.
	DefaultRetryMaxAttempts = 3

	// DefaultDiagnosticsTopN is the number of groups shown per uniqueness check.
	DefaultDiagnosticsTopN = 5
)
