package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Unknown is the value stored for optional fields a source does not provide.
const Unknown = "unknown"

// DefaultName is used when a source has no explicit title for an event.
const DefaultName = "meeting"

// recordNamespace scopes record IDs so they never collide with other UUIDv5 users.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pfrederiksen/chess-events/record"))

// Field names a piece of an event that a source can provide.
type Field string

const (
	FieldName     Field = "name"
	FieldDate     Field = "date"
	FieldOpenTime Field = "open_time"
	FieldRevenue  Field = "revenue"
	FieldFee      Field = "fee"
	FieldURL      Field = "url" // permalink of the unit, when the source has one
)

// Fields holds raw text per field, as extracted from one structural unit.
type Fields map[Field]string

// Record represents one validated chess club meeting
type Record struct {
	ID        string       `json:"id"`
	Source    string       `json:"source"`
	Name      string       `json:"name"`
	Organizer string       `json:"organizer"`
	StartDate CalendarDate `json:"start_date"`
	EndDate   CalendarDate `json:"end_date"`
	OpenTime  string       `json:"open_time"`
	Revenue   string       `json:"revenue"`
	Fee       string       `json:"fee"`
	SourceURL string       `json:"source_url"`
	ScrapedAt time.Time    `json:"scraped_at"`
}

// GenerateID creates a deterministic ID from the fields that identify a meeting.
// The fee is left out so that a changed fee updates the existing record.
func GenerateID(source, name string, start, end CalendarDate, revenue, openTime string) string {
	key := strings.Join([]string{
		source,
		strings.TrimSpace(name),
		start.String(),
		end.String(),
		strings.TrimSpace(revenue),
		strings.TrimSpace(openTime),
	}, "|")
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// SingleDay reports whether the record starts and ends on the same date.
func (r *Record) SingleDay() bool {
	return r.StartDate == r.EndDate
}
