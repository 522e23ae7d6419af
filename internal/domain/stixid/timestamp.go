package stixid

import (
	"strings"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
)

// Precision is the sub-second precision tag carried alongside a Timestamp.
type Precision int

const (
	// Second precision has no fractional component.
	Second Precision = iota
	// Millisecond precision carries 3 fractional digits. This is the
	// default precision (spec.md §4.2).
	Millisecond
	// Microsecond precision carries 6 fractional digits.
	Microsecond
)

// layout returns the time.Format layout string for the precision.
func (p Precision) layout() string {
	switch p {
	case Second:
		return "2006-01-02T15:04:05Z"
	case Microsecond:
		return "2006-01-02T15:04:05.000000Z"
	default:
		return "2006-01-02T15:04:05.000Z"
	}
}

// detectPrecision inspects the fractional-seconds digit count of s.
func detectPrecision(s string) Precision {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return Second
	}
	digits := 0
	for _, c := range s[dot+1:] {
		if c < '0' || c > '9' {
			break
		}
		digits++
	}
	switch {
	case digits >= 6:
		return Microsecond
	case digits >= 1:
		return Millisecond
	default:
		return Second
	}
}

// alternateLayouts are tried, in order, when RFC3339 parsing fails.
var alternateLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Timestamp wraps a UTC instant with the precision it should serialize at.
type Timestamp struct {
	t         time.Time
	precision Precision
}

// Now returns the current instant at the default (millisecond) precision.
func Now() Timestamp {
	return NewWithPrecision(time.Now(), Millisecond)
}

// New wraps t at the default (millisecond) precision.
func New(t time.Time) Timestamp {
	return NewWithPrecision(t, Millisecond)
}

// NewWithPrecision wraps t, truncated to the UTC timezone, at precision p.
func NewWithPrecision(t time.Time, p Precision) Timestamp {
	return Timestamp{t: t.UTC(), precision: p}
}

// ParseTimestamp parses an RFC3339 or STIX-alternate ISO-8601 timestamp,
// detecting its precision from the number of fractional-second digits present.
func ParseTimestamp(s string) (Timestamp, error) {
	precision := detectPrecision(s)

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{t: t.UTC(), precision: precision}, nil
	}
	for _, layout := range alternateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t: t.UTC(), precision: precision}, nil
		}
	}
	return Timestamp{}, apperr.Newf(apperr.InvalidInput, "failed to parse timestamp %q", s)
}

// Time returns the underlying UTC instant.
func (ts Timestamp) Time() time.Time { return ts.t }

// Precision returns the timestamp's serialization precision.
func (ts Timestamp) Precision() Precision { return ts.precision }

// IsZero reports whether ts is the unset zero value.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// Before reports whether ts is strictly before other.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// After reports whether ts is strictly after other.
func (ts Timestamp) After(other Timestamp) bool { return ts.t.After(other.t) }

// Equal reports whether ts and other represent the same instant (precision
// is not considered).
func (ts Timestamp) Equal(other Timestamp) bool { return ts.t.Equal(other.t) }

// String formats ts per its precision.
func (ts Timestamp) String() string {
	return ts.t.Format(ts.precision.layout())
}

// MarshalText implements encoding.TextMarshaler.
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *Timestamp) UnmarshalText(text []byte) error {
	parsed, err := ParseTimestamp(string(text))
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
