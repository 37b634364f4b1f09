package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes that indicate the server may accept a connection shortly.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnectionException  = "08"
	pgClassInsufficientResource = "53"
	pgClassOperatorIntervention = "57"

	// 57014 (query_canceled) is in class 57 but is never transient for a connect.
	pgCodeQueryCanceled = "57014"
)

// PostgreSQLErrorClassifier decides whether a failed connection attempt is worth retrying.
// Authentication failures (class 28) and missing databases (3D000) are fatal.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientCode(pgErr.Code)
	}

	if isNetworkError(err) {
		return true
	}

	return hasTransientMessage(err)
}

func isTransientCode(code string) bool {
	if code == pgCodeQueryCanceled {
		return false
	}
	switch {
	case strings.HasPrefix(code, pgClassConnectionException),
		strings.HasPrefix(code, pgClassInsufficientResource),
		strings.HasPrefix(code, pgClassOperatorIntervention):
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}

	return false
}

// transientPatterns catch pgconn errors that only carry the network cause as text.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"the database system is starting up",
	"server closed the connection",
	"unexpected eof",
}

func hasTransientMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
