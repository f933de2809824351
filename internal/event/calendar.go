package event

import (
	"fmt"
	"time"
)

// CalendarDate is a Gregorian (year, month, day) triple without time or zone.
// The zero value is the sentinel meaning "not determined".
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// JST is the zone all supported sources publish their schedules in.
var JST = time.FixedZone("Asia/Tokyo", 9*60*60)

// Sentinel marks a date that could not be parsed. It never appears in a Record.
var Sentinel = CalendarDate{}

// NewDate returns the date for y-m-d, or Sentinel if the combination is not a valid calendar date.
func NewDate(year int, month time.Month, day int) CalendarDate {
	if year < 1 || month < time.January || month > time.December || day < 1 {
		return Sentinel
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Sentinel
	}
	return CalendarDate{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsSentinel reports whether d is the sentinel date.
func (d CalendarDate) IsSentinel() bool {
	return d == Sentinel
}

// Time returns midnight of d in loc.
func (d CalendarDate) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n days.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d is strictly before o.
func (d CalendarDate) Before(o CalendarDate) bool {
	return d.Compare(o) < 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// String formats d as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts YYYY-MM-DD; an empty
// value or 0000-00-00 decodes to Sentinel.
func (d *CalendarDate) UnmarshalText(text []byte) error {
	if len(text) == 0 || string(text) == Sentinel.String() {
		*d = Sentinel
		return nil
	}
	t, err := time.Parse(time.DateOnly, string(text))
	if err != nil {
		return fmt.Errorf("parsing calendar date %q: %w", string(text), err)
	}
	*d = DateOf(t)
	return nil
}
