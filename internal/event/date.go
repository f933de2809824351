package event

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Substitutes for date components that are present but not numeric. A date built from
// them looks valid, so the component is marked ComponentDefaulted and the validator
// rejects it.
const (
	FallbackYear  = 1995
	FallbackMonth = 10
	FallbackDay   = 5
)

// Grammar selects how a date fragment is split into year, month and day.
type Grammar string

const (
	GrammarKanji Grammar = "kanji" // 2024年1月7日, 1月7日, 7日
	GrammarSlash Grammar = "slash" // 2024/1/7, 1/7, 7
	GrammarDot   Grammar = "dot"   // 2024.1.7, 1.7, 7
)

var (
	kanjiSeparators = strings.NewReplacer("年", "/", "月", "/")

	// closed parenthetical notes such as (日) or (月祝); full-width forms are folded first
	annotationPattern = regexp.MustCompile(`\([^()]*\)`)

	// range separators as they look after width folding
	rangeDashes = []string{"-", "~", "〜", "–", "—", "−"}
)

// Valid reports whether g is a known grammar.
func (g Grammar) Valid() bool {
	switch g {
	case GrammarKanji, GrammarSlash, GrammarDot:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects unknown grammars.
func (g *Grammar) UnmarshalText(text []byte) error {
	v := Grammar(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown date grammar %q", string(text))
	}
	*g = v
	return nil
}

// Format renders d in the grammar's full year-month-day form.
func (g Grammar) Format(d CalendarDate) string {
	switch g {
	case GrammarKanji:
		return fmt.Sprintf("%d年%d月%d日", d.Year, int(d.Month), d.Day)
	case GrammarDot:
		return fmt.Sprintf("%d.%d.%d", d.Year, int(d.Month), d.Day)
	default:
		return fmt.Sprintf("%d/%d/%d", d.Year, int(d.Month), d.Day)
	}
}

// split returns the right-aligned numeric components of s, or nil when the
// fragment cannot carry a day.
func (g Grammar) split(s string) []string {
	switch g {
	case GrammarKanji:
		if strings.HasSuffix(s, "年") || strings.HasSuffix(s, "月") {
			return nil
		}
		return strings.Split(kanjiSeparators.Replace(strings.TrimSuffix(s, "日")), "/")
	case GrammarSlash:
		return strings.Split(s, "/")
	case GrammarDot:
		return strings.Split(s, ".")
	}
	return nil
}

// ComponentState records where a date component came from.
type ComponentState uint8

const (
	ComponentMissing   ComponentState = iota
	ComponentPresent                  // read from the fragment
	ComponentInferred                 // copied from the reference date
	ComponentDefaulted                // unparsable, replaced by a fallback constant
)

func (c ComponentState) String() string {
	switch c {
	case ComponentPresent:
		return "present"
	case ComponentInferred:
		return "inferred"
	case ComponentDefaulted:
		return "defaulted"
	}
	return "missing"
}

// Resolution is the outcome of normalizing one date fragment.
type Resolution struct {
	Date  CalendarDate
	Year  ComponentState
	Month ComponentState
	Day   ComponentState
}

// Defaulted reports whether any component was replaced by a fallback constant.
func (r Resolution) Defaulted() bool {
	return r.Year == ComponentDefaulted || r.Month == ComponentDefaulted || r.Day == ComponentDefaulted
}

// FoldWidth canonicalizes full-width digits and punctuation to their half-width forms.
func FoldWidth(s string) string {
	return norm.NFKC.String(s)
}

// StripAnnotation drops everything from the first half- or full-width opening
// parenthesis onward and trims the rest.
func StripAnnotation(s string) string {
	if i := strings.IndexAny(s, "(（"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Normalize converts a raw date fragment into a calendar date. Omitted leading
// components (year, then month) are taken from ref; the day is never inferred.
// It never fails: an unusable fragment yields a Resolution whose Date is Sentinel.
func Normalize(fragment string, ref CalendarDate, g Grammar) Resolution {
	s := StripAnnotation(FoldWidth(fragment))
	if s == "" {
		return Resolution{}
	}

	parts := g.split(s)
	if len(parts) == 0 || len(parts) > 3 {
		return Resolution{}
	}

	values := [3]int{ref.Year, int(ref.Month), 0}
	states := [3]ComponentState{ComponentInferred, ComponentInferred, ComponentMissing}
	fallbacks := [3]int{FallbackYear, FallbackMonth, FallbackDay}

	offset := 3 - len(parts)
	for i, part := range parts {
		idx := offset + i
		values[idx], states[idx] = parseComponent(part, fallbacks[idx])
	}

	return Resolution{
		Date:  NewDate(values[0], time.Month(values[1]), values[2]),
		Year:  states[0],
		Month: states[1],
		Day:   states[2],
	}
}

func parseComponent(s string, fallback int) (int, ComponentState) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback, ComponentDefaulted
	}
	return n, ComponentPresent
}

// NormalizeRange normalizes a fragment that may describe a date range such as
// "2024/1/7(日)-1/8(月祝)". The end is resolved against the start, so it inherits a
// missing year or month from it. Without an end the range is the start day alone.
func NormalizeRange(fragment string, ref CalendarDate, g Grammar) (start, end Resolution) {
	s := annotationPattern.ReplaceAllString(FoldWidth(fragment), "")
	startText, endText := cutRange(s)

	start = Normalize(startText, ref, g)
	if StripAnnotation(endText) == "" {
		return start, start
	}

	end = Normalize(endText, start.Date, g)
	if end.Year == ComponentInferred && end.Month == ComponentPresent &&
		!end.Date.IsSentinel() && end.Date.Before(start.Date) {
		// 12/30-1/2 crosses a year boundary; a bare day such as 8/30-2 stays inverted
		if next := NewDate(end.Date.Year+1, end.Date.Month, end.Date.Day); !next.IsSentinel() {
			end.Date = next
		}
	}
	return start, end
}

// cutRange splits s around the earliest range separator.
func cutRange(s string) (before, after string) {
	idx, size := -1, 0
	for _, dash := range rangeDashes {
		if i := strings.Index(s, dash); i >= 0 && (idx < 0 || i < idx) {
			idx, size = i, len(dash)
		}
	}
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+size:]
}

// ParseDate is Normalize reduced to the resulting date.
func ParseDate(fragment string, ref CalendarDate, g Grammar) CalendarDate {
	return Normalize(fragment, ref, g).Date
}
