package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/extract"
	"github.com/pfrederiksen/chess-events/internal/logger"
	"github.com/pfrederiksen/chess-events/internal/metrics"
)

// ErrParse is returned when a fetched page cannot be parsed as HTML.
var ErrParse = errors.New("parsing HTML")

// Adapter produces validated records for one source.
type Adapter interface {
	Keyword() string
	// Scrape fails only when the page cannot be retrieved or parsed. Malformed
	// units are skipped.
	Scrape(ctx context.Context) ([]*event.Record, error)
}

// unitExtractor turns one structural unit into zero or more field sets.
type unitExtractor func(cfg *SourceConfig, unit *goquery.Selection) []event.Fields

var extractors = map[ExtractorKind]unitExtractor{
	ExtractLabelled: extractLabelled,
	ExtractLines:    extractLines,
	ExtractTable:    extractTable,
}

// sourceAdapter is the single Adapter implementation; sources differ only in config.
type sourceAdapter struct {
	cfg     SourceConfig
	fetcher Fetcher
	now     func() time.Time
}

func (a *sourceAdapter) Keyword() string {
	return a.cfg.Keyword
}

// Scrape fetches the source page and extracts its records
func (a *sourceAdapter) Scrape(ctx context.Context) ([]*event.Record, error) {
	body, err := a.fetcher.Fetch(ctx, a.cfg.URL, a.cfg.Encoding)
	if err != nil {
		return nil, err
	}
	return a.parse(strings.NewReader(body))
}

// parse extracts records from HTML
func (a *sourceAdapter) parse(r io.Reader) ([]*event.Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	now := a.now()
	ref := a.cfg.ReferenceDate
	if ref.IsSentinel() {
		ref = event.DateOf(now.In(event.JST))
	}

	extractFn := extractors[a.cfg.Extractor]
	records := make([]*event.Record, 0)
	seen := make(map[string]bool)

	doc.Find(a.cfg.UnitSelector).Each(func(i int, unit *goquery.Selection) {
		if !extract.Contains(unit.Text(), a.cfg.UnitMarker) {
			return
		}

		for _, fields := range extractFn(&a.cfg, unit) {
			rec, err := a.build(fields, ref, now)
			if err != nil {
				metrics.IncDropped(a.cfg.Keyword)
				logger.Debug("dropping unit", logger.Fields{
					"source": a.cfg.Keyword,
					"unit":   i,
					"reason": err.Error(),
				})
				continue
			}
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			records = append(records, rec)
		}
	})

	return records, nil
}

// build normalizes and validates one field set.
func (a *sourceAdapter) build(fields event.Fields, ref event.CalendarDate, now time.Time) (*event.Record, error) {
	for f, v := range a.cfg.Fixed {
		if strings.TrimSpace(fields[f]) == "" {
			fields[f] = v
		}
	}
	extract.PrepareDate(fields, a.cfg.RangeDates)

	c := event.Candidate{Fields: fields}
	if a.cfg.RangeDates {
		c.Start, c.End = event.NormalizeRange(fields[event.FieldDate], ref, a.cfg.Grammar)
	} else {
		c.Start = event.Normalize(fields[event.FieldDate], ref, a.cfg.Grammar)
		c.End = c.Start
	}

	if err := c.Validate(a.cfg.Required); err != nil {
		return nil, err
	}
	return c.Record(a.cfg.Keyword, a.cfg.Organizer, a.cfg.DefaultName, a.cfg.URL, now), nil
}

func extractLabelled(cfg *SourceConfig, unit *goquery.Selection) []event.Fields {
	fragments := make([]string, 0)
	unit.Find(cfg.FragmentSelector).Each(func(_ int, s *goquery.Selection) {
		fragments = append(fragments, s.Text())
	})

	fields := extract.Match(fragments, cfg.Rules)

	if cfg.TitleSelector != "" {
		if title := strings.TrimSpace(unit.Find(cfg.TitleSelector).First().Text()); title != "" {
			fields[event.FieldName] = title
		}
	}
	if cfg.LinkSelector != "" {
		if href, ok := unit.Find(cfg.LinkSelector).First().Attr("href"); ok {
			fields[event.FieldURL] = resolveLink(cfg.URL, href)
		}
	}

	return []event.Fields{fields}
}

func extractLines(cfg *SourceConfig, unit *goquery.Selection) []event.Fields {
	// <br> separated lines have no newline in the text nodes
	unit.Find("br").ReplaceWithHtml("\n")

	out := make([]event.Fields, 0)
	for _, line := range extract.Lines(unit.Text(), cfg.LineMarker) {
		out = append(out, extract.Columns(extract.Split(line, cfg.Separator), cfg.Columns))
	}
	return out
}

func extractTable(cfg *SourceConfig, unit *goquery.Selection) []event.Fields {
	selector := cfg.CellSelector
	if selector == "" {
		selector = "td"
	}

	cells := make([]string, 0)
	unit.Find(selector).Each(func(_ int, s *goquery.Selection) {
		cells = append(cells, s.Text())
	})
	if len(cells) == 0 {
		// header row
		return nil
	}
	return []event.Fields{extract.Columns(cells, cfg.Columns)}
}

// resolveLink makes href absolute against the source URL.
func resolveLink(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
