package domain

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout      = "20060102"
	timestampLayout = "200601021504"
)

// Date is a calendar date with no time-of-day or location. It is comparable
// and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes year/month/day the way time.Date does, so Feb 30 becomes Mar 1/2.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses the first 8 digits of s as YYYYMMDD. Discovery dates
// sometimes carry a trailing time component, which is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return Date{}, fmt.Errorf("parse date %q: want at least 8 digits", s)
	}
	t, err := time.Parse(dateLayout, s[:8])
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// ParseTimestamp parses a YYYYMMDDHHMM timestamp in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatTimestamp is the inverse of ParseTimestamp.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool { return d == Date{} }

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// WithYear returns d moved to year. Callers must not move Feb 29 into a
// non-leap year; time normalization would silently turn it into Mar 1.
func (d Date) WithYear(year int) Date {
	return Date{Year: year, Month: d.Month, Day: d.Day}
}

// IsLeapDay reports whether d falls on February 29.
func (d Date) IsLeapDay() bool {
	return d.Month == time.February && d.Day == 29
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// Compare returns -1, 0 or +1 like time.Time.Compare.
func (d Date) Compare(o Date) int {
	if c := cmp.Compare(d.Year, o.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, o.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, o.Day)
}

// Int returns the date as the integer YYYYMMDD.
func (d Date) Int() int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText encodes the zero Date as an empty string.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsLeapYear reports whether year has a February 29.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DateFromInt converts a YYYYMMDD integer into a Date.
func DateFromInt(v int) (Date, error) {
	return ParseDate(strconv.Itoa(v))
}
