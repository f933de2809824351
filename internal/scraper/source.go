package scraper

import (
	"errors"
	"fmt"

	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/extract"
)

// ExtractorKind selects how fields are read out of a structural unit.
type ExtractorKind string

const (
	// ExtractLabelled matches label markers against the unit's fragments.
	ExtractLabelled ExtractorKind = "labelled"
	// ExtractLines splits each marker line of the unit's text into columns.
	ExtractLines ExtractorKind = "lines"
	// ExtractTable reads the unit's cells as columns.
	ExtractTable ExtractorKind = "table"
)

// Source configuration errors.
var (
	ErrSourceMissingKeyword  = errors.New("keyword is required")
	ErrSourceMissingURL      = errors.New("url is required")
	ErrSourceMissingSelector = errors.New("unit selector is required")
	ErrSourceBadExtractor    = errors.New("extractor must be one of: labelled, lines, table")
	ErrSourceBadGrammar      = errors.New("grammar must be one of: kanji, slash, dot")
	ErrSourceMissingRules    = errors.New("labelled extractor needs at least one rule")
	ErrSourceMissingColumns  = errors.New("lines and table extractors need columns")
)

// SourceConfig is everything an adapter needs to know about one source.
type SourceConfig struct {
	Keyword   string
	Organizer string
	URL       string
	Encoding  string // charset label; empty means detect from the response

	Extractor        ExtractorKind
	UnitSelector     string
	UnitMarker       string // units whose text lacks it are skipped
	FragmentSelector string // labelled: fragments inside a unit
	TitleSelector    string // labelled: event title inside a unit
	LinkSelector     string // labelled: element whose href is the unit's permalink
	CellSelector     string // table: cells inside a row, "td" when empty
	LineMarker       string // lines: only lines containing it are read
	Separator        string // lines: column separator, whitespace when empty
	Columns          []event.Field
	Rules            []extract.Rule

	Required      []event.Field
	Grammar       event.Grammar
	RangeDates    bool
	ReferenceDate event.CalendarDate // Sentinel means today in JST
	DefaultName   string
	Fixed         event.Fields // values used when the page has none
}

// Validate checks that the configuration can drive an adapter.
func (c *SourceConfig) Validate() error {
	if c.Keyword == "" {
		return ErrSourceMissingKeyword
	}
	if c.URL == "" {
		return fmt.Errorf("%w: %s", ErrSourceMissingURL, c.Keyword)
	}
	if c.UnitSelector == "" {
		return fmt.Errorf("%w: %s", ErrSourceMissingSelector, c.Keyword)
	}
	if !c.Grammar.Valid() {
		return fmt.Errorf("%w: %s", ErrSourceBadGrammar, c.Keyword)
	}

	switch c.Extractor {
	case ExtractLabelled:
		if len(c.Rules) == 0 {
			return fmt.Errorf("%w: %s", ErrSourceMissingRules, c.Keyword)
		}
	case ExtractLines, ExtractTable:
		if len(c.Columns) == 0 {
			return fmt.Errorf("%w: %s", ErrSourceMissingColumns, c.Keyword)
		}
	default:
		return fmt.Errorf("%w: %s", ErrSourceBadExtractor, c.Keyword)
	}
	return nil
}

// clone copies the slices and maps so that registered configs stay immutable.
func (c SourceConfig) clone() SourceConfig {
	c.Columns = append([]event.Field(nil), c.Columns...)
	c.Rules = append([]extract.Rule(nil), c.Rules...)
	c.Required = append([]event.Field(nil), c.Required...)
	if c.Fixed != nil {
		fixed := make(event.Fields, len(c.Fixed))
		for k, v := range c.Fixed {
			fixed[k] = v
		}
		c.Fixed = fixed
	}
	return c
}
