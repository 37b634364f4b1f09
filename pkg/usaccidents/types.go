package usaccidents

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// LoadConfig contains all parameters needed for a load run.
type LoadConfig struct {
	// DataDir holds the archive and receives the extracted CSV.
	DataDir string

	// ArchiveName is the zip file name inside DataDir.
	ArchiveName string

	// CSVName is the CSV file name expected inside the archive.
	CSVName string

	// KeepCSV skips removing the extracted CSV after the tables are written.
	KeepCSV bool

	// IfExists controls what happens when an output table already exists.
	IfExists IfExists

	// Timeout bounds the whole run. Zero means no timeout.
	Timeout time.Duration

	// Connection is the resolved database connection.
	Connection *ConnectionConfig

	Verbose bool
}

// ArchivePath returns the full path to the zip archive.
func (c *LoadConfig) ArchivePath() string {
	return filepath.Join(c.DataDir, c.ArchiveName)
}

// CSVPath returns the full path to the extracted CSV.
func (c *LoadConfig) CSVPath() string {
	return filepath.Join(c.DataDir, c.CSVName)
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("DataDir is required: %w", ErrInvalidConfig))
	}
	if c.ArchiveName == "" {
		errs = append(errs, fmt.Errorf("ArchiveName is required: %w", ErrInvalidConfig))
	}
	if c.CSVName == "" {
		errs = append(errs, fmt.Errorf("CSVName is required: %w", ErrInvalidConfig))
	}
	if !c.IfExists.IsValid() {
		errs = append(errs, fmt.Errorf("IfExists %q must be %q or %q: %w", c.IfExists, IfExistsReplace, IfExistsFail, ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}
	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
	} else if c.Connection.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// IfExists selects the behavior when an output table already exists.
type IfExists string

const (
	// IfExistsReplace drops both output tables before recreating them.
	IfExistsReplace IfExists = "replace"
	// IfExistsFail leaves existing tables alone and fails the run.
	IfExistsFail IfExists = "fail"
)

// IsValid reports whether the value is a known policy.
func (i IfExists) IsValid() bool {
	return i == IfExistsReplace || i == IfExistsFail
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// Otherwise the DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password or .pgpass
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the names used in usaccidents.yaml to an AuthMethod.
// An empty name means AuthMethodStandard.
func ParseAuthMethod(name string) (AuthMethod, error) {
	switch name {
	case "", "standard":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("auth method %q: %w", name, ErrUnsupportedAuthMethod)
	}
}

// Record is one projected source row. Empty CSV fields are null (Valid=false).
// Tags name the source CSV columns.
type Record struct {
	Severity         pgtype.Int8      `csv:"Severity"`
	Datetime         pgtype.Timestamp `csv:"Start_Time"`
	Lat              pgtype.Float8    `csv:"Start_Lat"`
	Lng              pgtype.Float8    `csv:"Start_Lng"`
	WeatherCondition pgtype.Text      `csv:"Weather_Condition"`
	City             pgtype.Text      `csv:"City"`
	State            pgtype.Text      `csv:"State"`
	County           pgtype.Text      `csv:"County"`
}

// Key returns the location dedup key of the record.
func (r Record) Key() LocationKey {
	return LocationKey{City: r.City, County: r.County, State: r.State}
}

// LocationKey is the (City, County, State) tuple assumed to identify a location.
// It is comparable and usable as a map key; null components are distinct from "".
type LocationKey struct {
	City   pgtype.Text
	County pgtype.Text
	State  pgtype.Text
}

// HasNull reports whether any component is null.
func (k LocationKey) HasNull() bool {
	return !k.City.Valid || !k.County.Valid || !k.State.Valid
}

// Location is a row of the cities table.
type Location struct {
	ID     int64
	City   pgtype.Text
	State  pgtype.Text
	County pgtype.Text
}

// Key returns the dedup key of the location.
func (l Location) Key() LocationKey {
	return LocationKey{City: l.City, County: l.County, State: l.State}
}

// Accident is a row of the accidents table. CityID is null when the record's
// location did not join.
type Accident struct {
	Severity         pgtype.Int8
	Datetime         pgtype.Timestamp
	Lat              pgtype.Float8
	Lng              pgtype.Float8
	WeatherCondition pgtype.Text
	CityID           pgtype.Int8
}

// Summary describes a finished load run.
type Summary struct {
	Extracted  bool
	Locations  int64
	Accidents  int64
	Unmatched  int64
	CSVRemoved bool
	Duration   time.Duration
}
