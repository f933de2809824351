package event

import "sort"

// Snapshot represents the records stored for one source at a point in time
type Snapshot struct {
	Source    string             `json:"source"`
	Records   map[string]*Record `json:"records"` // keyed by Record.ID
	UpdatedAt string             `json:"updated_at"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot(source string) *Snapshot {
	return &Snapshot{
		Source:  source,
		Records: make(map[string]*Record),
	}
}

// Merge adds or replaces records by ID and returns how many were not present before.
func (s *Snapshot) Merge(records []*Record) int {
	if s.Records == nil {
		s.Records = make(map[string]*Record)
	}

	added := 0
	for _, rec := range records {
		if _, exists := s.Records[rec.ID]; !exists {
			added++
		}
		s.Records[rec.ID] = rec
	}
	return added
}

// Sorted returns the snapshot's records ordered by start date, then ID.
func (s *Snapshot) Sorted() []*Record {
	out := make([]*Record, 0, len(s.Records))
	for _, rec := range s.Records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].StartDate.Compare(out[j].StartDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
