package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/extract"
	"github.com/pfrederiksen/chess-events/internal/scraper"
)

// Sources file validation errors.
var (
	ErrUnknownField   = errors.New("unknown record field")
	ErrInvalidPattern = errors.New("invalid rule pattern")
	ErrEmptyRule      = errors.New("rule needs a label or a pattern")
)

var knownFields = map[string]event.Field{
	string(event.FieldName):     event.FieldName,
	string(event.FieldDate):     event.FieldDate,
	string(event.FieldOpenTime): event.FieldOpenTime,
	string(event.FieldRevenue):  event.FieldRevenue,
	string(event.FieldFee):      event.FieldFee,
	string(event.FieldURL):      event.FieldURL,
}

// SourcesFile is the document stored in the sources file.
type SourcesFile struct {
	Sources []SourceSpec `yaml:"sources"`
}

// SourceSpec describes one source. For a built-in keyword only the set fields
// replace the built-in values.
type SourceSpec struct {
	Keyword          string            `yaml:"keyword"`
	Organizer        string            `yaml:"organizer"`
	URL              string            `yaml:"url"`
	Encoding         string            `yaml:"encoding"`
	Extractor        string            `yaml:"extractor"`
	UnitSelector     string            `yaml:"unit_selector"`
	UnitMarker       string            `yaml:"unit_marker"`
	FragmentSelector string            `yaml:"fragment_selector"`
	TitleSelector    string            `yaml:"title_selector"`
	LinkSelector     string            `yaml:"link_selector"`
	CellSelector     string            `yaml:"cell_selector"`
	LineMarker       string            `yaml:"line_marker"`
	Separator        string            `yaml:"separator"`
	Columns          []string          `yaml:"columns"` // "-" skips a column
	Rules            []RuleSpec        `yaml:"rules"`
	Required         []string          `yaml:"required"`
	Grammar          string            `yaml:"grammar"`
	RangeDates       *bool             `yaml:"range_dates"`
	ReferenceDate    string            `yaml:"reference_date"` // YYYY-MM-DD
	DefaultName      string            `yaml:"default_name"`
	Fixed            map[string]string `yaml:"fixed"`
}

// RuleSpec is a labelled extraction rule.
type RuleSpec struct {
	Field   string `yaml:"field"`
	Label   string `yaml:"label"`
	Pattern string `yaml:"pattern"`
}

// LoadSources reads a sources file. Unknown keys are rejected.
func LoadSources(path string) ([]SourceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return ParseSources(data)
}

// ParseSources decodes a sources document.
func ParseSources(data []byte) ([]SourceSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file SourcesFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return file.Sources, nil
}

// ApplySources merges specs into reg. A spec for a registered keyword starts from
// the registered configuration.
func ApplySources(reg *scraper.Registry, specs []SourceSpec) error {
	for i, spec := range specs {
		base, _ := reg.Lookup(spec.Keyword)
		cfg, err := spec.merge(base)
		if err != nil {
			return fmt.Errorf("sources[%d] (%s): %w", i, spec.Keyword, err)
		}
		if err := reg.Register(cfg); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}
	return nil
}

func (s SourceSpec) merge(cfg scraper.SourceConfig) (scraper.SourceConfig, error) {
	cfg.Keyword = s.Keyword

	setString(&cfg.Organizer, s.Organizer)
	setString(&cfg.URL, s.URL)
	setString(&cfg.Encoding, s.Encoding)
	setString(&cfg.UnitSelector, s.UnitSelector)
	setString(&cfg.UnitMarker, s.UnitMarker)
	setString(&cfg.FragmentSelector, s.FragmentSelector)
	setString(&cfg.TitleSelector, s.TitleSelector)
	setString(&cfg.LinkSelector, s.LinkSelector)
	setString(&cfg.CellSelector, s.CellSelector)
	setString(&cfg.LineMarker, s.LineMarker)
	setString(&cfg.Separator, s.Separator)
	setString(&cfg.DefaultName, s.DefaultName)

	if s.Extractor != "" {
		cfg.Extractor = scraper.ExtractorKind(s.Extractor)
	}
	if s.Grammar != "" {
		if err := cfg.Grammar.UnmarshalText([]byte(s.Grammar)); err != nil {
			return cfg, err
		}
	}
	if s.RangeDates != nil {
		cfg.RangeDates = *s.RangeDates
	}
	if s.ReferenceDate != "" {
		if err := cfg.ReferenceDate.UnmarshalText([]byte(s.ReferenceDate)); err != nil {
			return cfg, fmt.Errorf("reference_date: %w", err)
		}
	}

	if s.Columns != nil {
		cols := make([]event.Field, len(s.Columns))
		for i, c := range s.Columns {
			if c == "-" || c == "" {
				continue
			}
			f, err := parseField(c)
			if err != nil {
				return cfg, err
			}
			cols[i] = f
		}
		cfg.Columns = cols
	}

	if s.Required != nil {
		req := make([]event.Field, 0, len(s.Required))
		for _, r := range s.Required {
			f, err := parseField(r)
			if err != nil {
				return cfg, err
			}
			req = append(req, f)
		}
		cfg.Required = req
	}

	if s.Rules != nil {
		rules := make([]extract.Rule, 0, len(s.Rules))
		for _, r := range s.Rules {
			rule, err := r.compile()
			if err != nil {
				return cfg, err
			}
			rules = append(rules, rule)
		}
		cfg.Rules = rules
	}

	if s.Fixed != nil {
		fixed := make(event.Fields, len(s.Fixed))
		for k, v := range s.Fixed {
			f, err := parseField(k)
			if err != nil {
				return cfg, err
			}
			fixed[f] = v
		}
		cfg.Fixed = fixed
	}

	return cfg, nil
}

func (r RuleSpec) compile() (extract.Rule, error) {
	f, err := parseField(r.Field)
	if err != nil {
		return extract.Rule{}, err
	}
	if r.Label == "" && r.Pattern == "" {
		return extract.Rule{}, fmt.Errorf("%w: %s", ErrEmptyRule, r.Field)
	}

	rule := extract.Rule{Field: f, Label: r.Label}
	if r.Pattern != "" {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return extract.Rule{}, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
		}
		rule.Pattern = re
	}
	return rule, nil
}

func parseField(name string) (event.Field, error) {
	f, ok := knownFields[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
