package usaccidents

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	summary, err := loader.Run(ctx, cfg)
//	if errors.Is(err, usaccidents.ErrArchiveNotFound) {
//	    // Download the dataset first
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrArchiveNotFound indicates the zip archive, or the CSV inside it, is missing.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrMalformedCSV indicates the CSV header or a row could not be decoded.
	ErrMalformedCSV = errors.New("malformed csv")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrWriteFailed indicates creating or populating an output table failed.
	ErrWriteFailed = errors.New("write failed")

	// ErrConstraintFailed indicates a uniqueness or foreign-key constraint could not be added.
	ErrConstraintFailed = errors.New("constraint failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrArchiveNotFound):
		return ExitArchiveMissing
	case errors.Is(err, ErrMalformedCSV):
		return ExitMalformedCSV
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrWriteFailed):
		return ExitWriteFailed
	case errors.Is(err, ErrConstraintFailed):
		return ExitConstraintFailed
	}

	errStr := err.Error()
	if strings.Contains(errStr, "unknown flag") ||
		strings.Contains(errStr, "unknown command") ||
		(strings.Contains(errStr, "accepts") && strings.Contains(errStr, "arg(s)")) {
		return ExitUsageError
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
