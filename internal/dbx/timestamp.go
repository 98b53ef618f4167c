package dbx

import (
	"fmt"
	"time"
)

// Timestamp scans a timestamp column regardless of how the driver hands it
// over. pgx returns time.Time; modernc sqlite returns time.Time for
// DATETIME columns it can parse and text otherwise.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		ts.Time, ts.Valid = time.Time{}, false
		return nil
	case time.Time:
		ts.Time, ts.Valid = v.UTC(), true
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (ts *Timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time, ts.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

// Ptr returns nil for NULL, the UTC time otherwise.
func (ts Timestamp) Ptr() *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

// UTC normalises a time before it is written so both dialects store and
// order the same instant identically.
func UTC(t time.Time) time.Time {
	return t.UTC().Round(time.Microsecond)
}

// NullableUTC is UTC for optional columns.
func NullableUTC(t *time.Time) any {
	if t == nil {
		return nil
	}
	return UTC(*t)
}
