package frame

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jszwec/csvutil"
)

// RequiredColumns are the source columns every input file must carry.
var RequiredColumns = []string{
	"Severity",
	"Start_Time",
	"Start_Lat",
	"Start_Lng",
	"Weather_Condition",
	"City",
	"State",
	"County",
}

// timeLayouts are tried in order for Start_Time.
// The first accepts an optional fractional second.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// ParseTimestamp parses a Start_Time value. Offsets are normalized to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func registerNullable(dec *csvutil.Decoder) {
	dec.Register(func(data []byte, v *pgtype.Text) error {
		if len(data) == 0 {
			*v = pgtype.Text{}
			return nil
		}
		*v = pgtype.Text{String: string(data), Valid: true}
		return nil
	})

	dec.Register(func(data []byte, v *pgtype.Int8) error {
		s := strings.TrimSpace(string(data))
		if s == "" {
			*v = pgtype.Int8{}
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*v = pgtype.Int8{Int64: n, Valid: true}
		return nil
	})

	dec.Register(func(data []byte, v *pgtype.Float8) error {
		s := strings.TrimSpace(string(data))
		if s == "" {
			*v = pgtype.Float8{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*v = pgtype.Float8{Float64: f, Valid: true}
		return nil
	})

	dec.Register(func(data []byte, v *pgtype.Timestamp) error {
		s := strings.TrimSpace(string(data))
		if s == "" {
			*v = pgtype.Timestamp{}
			return nil
		}
		t, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*v = pgtype.Timestamp{Time: t, Valid: true}
		return nil
	})
}

func missingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
