package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/chess-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate   SortOrder = "date"
	SortBySource SortOrder = "source"
	SortByName   SortOrder = "name"
)

// parseSortOrder validates a --sort value.
func parseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortByDate, SortBySource, SortByName:
		return o, nil
	case "":
		return SortByDate, nil
	}
	return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'source' or 'name')", s)
}

// sortRecords sorts a slice of records based on the specified sort order
func sortRecords(records []*event.Record, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByDate(records[i], records[j])
		})
	case SortBySource:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Source != records[j].Source {
				return records[i].Source < records[j].Source
			}
			// If sources are equal, sort by date
			return compareByDate(records[i], records[j])
		})
	case SortByName:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Name != records[j].Name {
				return strings.ToLower(records[i].Name) < strings.ToLower(records[j].Name)
			}
			return compareByDate(records[i], records[j])
		})
	}
}

// compareByDate reports whether i should come before j: earlier start first, then
// shorter events, then by name.
func compareByDate(i, j *event.Record) bool {
	if c := i.StartDate.Compare(j.StartDate); c != 0 {
		return c < 0
	}
	if c := i.EndDate.Compare(j.EndDate); c != 0 {
		return c < 0
	}
	return strings.ToLower(i.Name) < strings.ToLower(j.Name)
}
