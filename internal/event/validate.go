package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reasons a candidate is rejected. Adapters drop rejected candidates without reporting them.
var (
	ErrMissingField  = errors.New("required field missing")
	ErrSentinelDate  = errors.New("date could not be parsed")
	ErrDefaultedDate = errors.New("date has a defaulted component")
	ErrInvertedRange = errors.New("end date before start date")
)

// Candidate is what an adapter extracted from one structural unit before validation.
type Candidate struct {
	Fields Fields
	Start  Resolution
	End    Resolution
}

// Validate checks that every required field is non-empty and that both dates are
// fully parsed. Dates are always required.
func (c *Candidate) Validate(required []Field) error {
	for _, f := range required {
		if strings.TrimSpace(c.Fields[f]) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f)
		}
	}

	for _, r := range []Resolution{c.Start, c.End} {
		if r.Date.IsSentinel() {
			return ErrSentinelDate
		}
		if r.Defaulted() {
			return fmt.Errorf("%w: %s", ErrDefaultedDate, r.Date)
		}
	}

	if c.End.Date.Before(c.Start.Date) {
		return fmt.Errorf("%w: %s > %s", ErrInvertedRange, c.Start.Date, c.End.Date)
	}
	return nil
}

// Valid is Validate as a predicate.
func (c *Candidate) Valid(required []Field) bool {
	return c.Validate(required) == nil
}

// Record builds the Record for a validated candidate. Blank optional fields become
// Unknown, a blank name becomes defaultName and a unit permalink replaces sourceURL.
func (c *Candidate) Record(source, organizer, defaultName, sourceURL string, scrapedAt time.Time) *Record {
	value := func(f Field) string {
		if v := strings.TrimSpace(c.Fields[f]); v != "" {
			return v
		}
		return Unknown
	}

	name := strings.TrimSpace(c.Fields[FieldName])
	if name == "" {
		name = defaultName
	}
	if name == "" {
		name = DefaultName
	}

	if link := strings.TrimSpace(c.Fields[FieldURL]); link != "" {
		sourceURL = link
	}

	rec := &Record{
		Source:    source,
		Name:      name,
		Organizer: organizer,
		StartDate: c.Start.Date,
		EndDate:   c.End.Date,
		OpenTime:  value(FieldOpenTime),
		Revenue:   value(FieldRevenue),
		Fee:       value(FieldFee),
		SourceURL: sourceURL,
		ScrapedAt: scrapedAt.UTC(),
	}
	rec.ID = GenerateID(source, rec.Name, rec.StartDate, rec.EndDate, rec.Revenue, rec.OpenTime)
	return rec
}
