package usaccidents

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"invalid config", fmt.Errorf("DataDir is required: %w", ErrInvalidConfig), ExitConfigError},
		{"unsupported auth", fmt.Errorf("auth method %q: %w", "kerberos", ErrUnsupportedAuthMethod), ExitConfigError},
		{"archive missing", fmt.Errorf("data/us-accidents.zip: %w", ErrArchiveNotFound), ExitArchiveMissing},
		{"malformed csv", fmt.Errorf("line 3: %w", ErrMalformedCSV), ExitMalformedCSV},
		{"connection sentinel", fmt.Errorf("x: %w", ErrConnectionFailed), ExitConnectionError},
		{"write failed", fmt.Errorf("copy accidents: %w", ErrWriteFailed), ExitWriteFailed},
		{"constraint failed", fmt.Errorf("unique_city_id: %w", ErrConstraintFailed), ExitConstraintFailed},
		{"connection refused text", errors.New("dial tcp 127.0.0.1:5432: connection refused"), ExitConnectionError},
		{"unknown flag", errors.New("unknown flag: --bogus"), ExitUsageError},
		{"too many args", errors.New("accepts 0 arg(s), received 2"), ExitUsageError},
		{"unclassified", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
