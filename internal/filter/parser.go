package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/chess-events/internal/event"
)

// ErrInvalidPeriod is returned when a period string cannot be read.
var ErrInvalidPeriod = errors.New("invalid period")

var (
	yearMonthPattern = regexp.MustCompile(`^(\d{4})\s*[年/.]\s*(\d{1,2})\s*月?$`)
	monthPattern     = regexp.MustCompile(`^(\d{1,2})\s*月$`)
)

// ParsePeriod parses a period the way the sites write dates into an inclusive
// date range.
//
// Supported formats:
//   - "2024年2月", "2024/2" or "2月" - the whole month
//   - "2月3日", "2/3" - a single day
//   - "2/1-2/15", "2月1日〜15日" - a range, as in a meeting announcement
//
// The year is inferred from ref:
//   - An explicit year is used as is
//   - A month before ref's month is taken to be next year
//
// Full-width digits and separators are accepted.
func ParsePeriod(input string, ref event.CalendarDate) (from, to event.CalendarDate, err error) {
	s := strings.TrimSpace(event.FoldWidth(input))
	if s == "" {
		return from, to, fmt.Errorf("%w: period cannot be empty", ErrInvalidPeriod)
	}

	// Format 1: a whole month
	if m := yearMonthPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return wholeMonth(year, month)
	}
	if m := monthPattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		return wholeMonth(yearForMonth(time.Month(month), ref), month)
	}

	// Format 2: a day or a range of days
	start, end := event.NormalizeRange(s, ref, grammarOf(s))
	c := event.Candidate{Start: start, End: end}
	if err := c.Validate(nil); err != nil {
		return from, to, fmt.Errorf("%w: %q: %w", ErrInvalidPeriod, input, err)
	}

	from, to = start.Date, end.Date
	if start.Year == event.ComponentInferred && from.Month < ref.Month {
		from = shiftYear(from)
		to = shiftYear(to)
	}
	if to.Before(from) {
		return event.Sentinel, event.Sentinel, fmt.Errorf("%w: %s is before %s", ErrInvalidPeriod, to, from)
	}
	return from, to, nil
}

func wholeMonth(year, month int) (from, to event.CalendarDate, err error) {
	from = event.NewDate(year, time.Month(month), 1)
	if from.IsSentinel() {
		return from, from, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	// day 0 of the next month
	return from, event.DateOf(time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)), nil
}

// grammarOf guesses the date grammar of a folded period string.
func grammarOf(s string) event.Grammar {
	switch {
	case strings.ContainsAny(s, "年月日"):
		return event.GrammarKanji
	case strings.Contains(s, "."):
		return event.GrammarDot
	default:
		return event.GrammarSlash
	}
}

// yearForMonth returns ref's year, or the next one when month has already
// passed.
func yearForMonth(month time.Month, ref event.CalendarDate) int {
	if month < ref.Month {
		return ref.Year + 1
	}
	return ref.Year
}

func shiftYear(d event.CalendarDate) event.CalendarDate {
	if next := event.NewDate(d.Year+1, d.Month, d.Day); !next.IsSentinel() {
		return next
	}
	// 2/29 into a common year
	return event.NewDate(d.Year+1, d.Month, d.Day-1)
}
