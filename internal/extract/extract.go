package extract

import (
	"regexp"
	"strings"

	"github.com/pfrederiksen/chess-events/internal/event"
)

// OpenTimePattern matches a "13時00分〜17時00分" style window once widths are folded.
var OpenTimePattern = regexp.MustCompile(`\d{2}時\d{2}分\s*[〜~\-–—]\s*\d{2}時\d{2}分`)

// Rule assigns a fragment to Field when it contains Label or matches Pattern.
type Rule struct {
	Field   event.Field
	Label   string
	Pattern *regexp.Regexp
}

// apply returns the field value for text, which must already be width folded.
func (r Rule) apply(text string) (string, bool) {
	if r.Label != "" {
		label := event.FoldWidth(r.Label)
		if strings.Contains(text, label) {
			return strings.TrimSpace(strings.TrimPrefix(text, label)), true
		}
	}
	if r.Pattern != nil && r.Pattern.MatchString(text) {
		return text, true
	}
	return "", false
}

// Match runs every rule against every fragment. Labels are compared after width
// folding, so "場所：" matches a "場所:" label. A later fragment overrides an earlier one.
func Match(fragments []string, rules []Rule) event.Fields {
	fields := make(event.Fields)
	for _, raw := range fragments {
		text := strings.TrimSpace(event.FoldWidth(raw))
		if text == "" {
			continue
		}
		for _, r := range rules {
			if v, ok := r.apply(text); ok && v != "" {
				fields[r.Field] = v
			}
		}
	}
	return fields
}

// Columns assigns parts to fields by position. An empty field name skips a column.
func Columns(parts []string, columns []event.Field) event.Fields {
	fields := make(event.Fields)
	for i, f := range columns {
		if f == "" || i >= len(parts) {
			continue
		}
		if v := strings.TrimSpace(parts[i]); v != "" {
			fields[f] = v
		}
	}
	return fields
}

// Split cuts line on sep and drops empty parts, so runs of separators count as one.
func Split(line, sep string) []string {
	var raw []string
	if sep == "" {
		raw = strings.Fields(line)
	} else {
		raw = strings.Split(line, sep)
	}

	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Contains reports whether text contains marker, ignoring glyph width.
// An empty marker matches everything.
func Contains(text, marker string) bool {
	if marker == "" {
		return true
	}
	return strings.Contains(event.FoldWidth(text), event.FoldWidth(marker))
}

// Lines returns the non-blank lines of text that contain marker, untrimmed of
// inner separators.
func Lines(text, marker string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || !Contains(line, marker) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// PrepareDate strips the trailing annotation from the date field. Range sources
// keep it because the end of the range follows the first annotation.
func PrepareDate(fields event.Fields, ranged bool) {
	if ranged {
		return
	}
	if v, ok := fields[event.FieldDate]; ok {
		fields[event.FieldDate] = event.StripAnnotation(v)
	}
}
