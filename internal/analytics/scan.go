package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// sqlDate accepts the date representations drivers hand back: DuckDB yields
// time.Time, SQLite yields text.
type sqlDate struct {
	Time  time.Time
	Valid bool
}

var dateLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05",
}

func (d *sqlDate) Scan(value interface{}) error {
	d.Valid = false
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		d.Time, d.Valid = v, true
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date type %T", value)
	}
}

func (d *sqlDate) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time, d.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unrecognised date %q", s)
}

// String returns YYYY-MM-DD, or "" when null.
func (d sqlDate) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}

// nullFloat scans any numeric representation, including DuckDB decimals.
type nullFloat struct {
	Float64 float64
	Valid   bool
}

func (f *nullFloat) Scan(value interface{}) error {
	v, ok := toFloat(value)
	f.Float64, f.Valid = v, ok
	return nil
}

func (f nullFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// toFloat converts a driver value to float64. NaN and unparseable values report false.
func toFloat(value interface{}) (float64, bool) {
	var out float64
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		out = v
	case float32:
		out = float64(v)
	case int64:
		out = float64(v)
	case int32:
		out = float64(v)
	case int:
		out = float64(v)
	case []byte:
		return toFloat(string(v))
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		out = parsed
	case interface{ Float64() float64 }:
		out = v.Float64()
	default:
		return 0, false
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, false
	}
	return out, true
}

// ToFloat is exported for callers reading SELECT * rows.
func ToFloat(value interface{}) (float64, bool) {
	return toFloat(value)
}
