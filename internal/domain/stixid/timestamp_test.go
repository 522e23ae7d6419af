package stixid

import (
	"testing"
	"time"
)

func TestTimestampPrecisionPreservation(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		precision Precision
	}{
		{"second", "2021-04-06T16:00:00Z", Second},
		{"millisecond", "2021-04-06T16:00:00.123Z", Millisecond},
		{"microsecond", "2021-04-06T16:00:00.123456Z", Microsecond},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts, err := ParseTimestamp(c.input)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q): %v", c.input, err)
			}
			if ts.Precision() != c.precision {
				t.Errorf("Precision() = %v, want %v", ts.Precision(), c.precision)
			}
			if got := ts.String(); got != c.input {
				t.Errorf("String() = %q, want %q", got, c.input)
			}
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := NewWithPrecision(time.Date(2023, 6, 1, 12, 30, 45, 0, time.UTC), Second)
	text, err := ts.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var got Timestamp
	if err := got.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if !got.Equal(ts) || got.Precision() != ts.Precision() {
		t.Errorf("round-trip mismatch: %v != %v", got, ts)
	}
}

func TestTimestampOrdering(t *testing.T) {
	earlier, _ := ParseTimestamp("2020-01-01T00:00:00Z")
	later, _ := ParseTimestamp("2021-01-01T00:00:00Z")
	if !earlier.Before(later) {
		t.Error("expected earlier.Before(later)")
	}
	if !later.After(earlier) {
		t.Error("expected later.After(earlier)")
	}
	if earlier.Equal(later) {
		t.Error("distinct instants must not be Equal")
	}
}

func TestParseInvalidTimestamp(t *testing.T) {
	if _, err := ParseTimestamp("not-a-timestamp"); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}

func TestParseAlternateLayout(t *testing.T) {
	ts, err := ParseTimestamp("2021-04-06 16:00:00")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ts.Time().Year() != 2021 {
		t.Errorf("unexpected parsed year: %d", ts.Time().Year())
	}
}
