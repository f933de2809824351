// Package filter narrows a run's records by date, name, venue and weekday.
//
// Criteria combine with AND; within a list (names, venues, organizers) any entry
// may match. Text matching is a case-insensitive substring match on the
// width-folded text, so "ｎｃｓ" and "NCS" are the same.
//
// Example usage:
//
//	// Weekend meetings in Kita-Senju from February on
//	f := filter.New()
//	f.From = event.NewDate(2024, time.February, 1)
//	f.Venues = []string{"北千住"}
//	f.WeekendsOnly = true
//
//	records = f.Apply(records)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/chess-events/internal/event"
)

// Filter represents record filtering criteria
type Filter struct {
	// Date range filtering; a Sentinel bound is open
	From event.CalendarDate `json:"from,omitzero"`
	To   event.CalendarDate `json:"to,omitzero"`

	// Name filtering (substring of the meeting name)
	Names []string `json:"names,omitempty"`

	// Venue filtering (substring of the venue)
	Venues []string `json:"venues,omitempty"`

	// Organizer filtering (substring of the organizer)
	Organizers []string `json:"organizers,omitempty"`

	// Weekend-only filtering (Saturday/Sunday in Japan)
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// New creates a new empty filter with no active criteria.
// The filter will match all records until criteria are added.
func New() *Filter {
	return &Filter{
		Names:      []string{},
		Venues:     []string{},
		Organizers: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.From.IsSentinel() &&
		f.To.IsSentinel() &&
		len(f.Names) == 0 &&
		len(f.Venues) == 0 &&
		len(f.Organizers) == 0 &&
		!f.WeekendsOnly
}

// Matches checks if a record matches all active filter criteria.
// An empty filter matches all records.
//
// Matching logic:
//   - Date range: the record's span must overlap From..To (inclusive)
//   - Names, Venues, Organizers: the field must contain at least one entry
//   - WeekendsOnly: at least one day of the span is a Saturday or Sunday
func (f *Filter) Matches(rec *event.Record) bool {
	if f.IsEmpty() {
		return true
	}

	if !f.From.IsSentinel() && rec.EndDate.Before(f.From) {
		return false
	}
	if !f.To.IsSentinel() && f.To.Before(rec.StartDate) {
		return false
	}

	if f.WeekendsOnly && !touchesWeekend(rec) {
		return false
	}

	if !containsAny(rec.Name, f.Names) {
		return false
	}
	if !containsAny(rec.Revenue, f.Venues) {
		return false
	}
	if !containsAny(rec.Organizer, f.Organizers) {
		return false
	}

	return true
}

// Apply returns the records that match all criteria. An empty filter returns
// records unchanged.
func (f *Filter) Apply(records []*event.Record) []*event.Record {
	if f.IsEmpty() {
		return records
	}

	filtered := make([]*event.Record, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: 2024-02-01 | Venues: 北千住 | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if !f.From.IsSentinel() {
		parts = append(parts, fmt.Sprintf("From: %s", f.From))
	}
	if !f.To.IsSentinel() {
		parts = append(parts, fmt.Sprintf("To: %s", f.To))
	}
	if len(f.Names) > 0 {
		parts = append(parts, fmt.Sprintf("Names: %s", strings.Join(f.Names, ", ")))
	}
	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}
	if len(f.Organizers) > 0 {
		parts = append(parts, fmt.Sprintf("Organizers: %s", strings.Join(f.Organizers, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	return strings.Join(parts, " | ")
}

// ParseBound parses a YYYY-MM-DD bound; an empty string is an open bound.
func ParseBound(s string) (event.CalendarDate, error) {
	var d event.CalendarDate
	if strings.TrimSpace(s) == "" {
		return d, nil
	}
	if err := d.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return d, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

func containsAny(field string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	folded := strings.ToLower(event.FoldWidth(field))
	for _, n := range needles {
		if strings.Contains(folded, strings.ToLower(event.FoldWidth(n))) {
			return true
		}
	}
	return false
}

func touchesWeekend(rec *event.Record) bool {
	// a week covers every weekday
	for d, i := rec.StartDate, 0; !rec.EndDate.Before(d) && i < 7; d, i = d.AddDays(1), i+1 {
		switch d.Time(event.JST).Weekday() {
		case time.Saturday, time.Sunday:
			return true
		}
	}
	return false
}
