package filter

import (
	"testing"
	"time"

	"github.com/pfrederiksen/chess-events/internal/event"
)

func date(y int, m time.Month, d int) event.CalendarDate {
	return event.NewDate(y, m, d)
}

// 2024-01-20 is a Saturday, 2024-01-22 a Monday.
func record(name, venue string, start, end event.CalendarDate) *event.Record {
	return &event.Record{
		Name:      name,
		Revenue:   venue,
		Organizer: "Kitasenjyu Chess Club",
		StartDate: start,
		EndDate:   end,
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{name: "empty filter", filter: New(), want: true},
		{name: "zero value", filter: &Filter{}, want: true},
		{name: "with from", filter: &Filter{From: date(2024, 1, 1)}, want: false},
		{name: "weekends only", filter: &Filter{WeekendsOnly: true}, want: false},
		{name: "with venue", filter: &Filter{Venues: []string{"北千住"}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsEmpty(); got != tt.want {
				t.Errorf("Filter.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	saturday := record("日本チェス連盟公式戦２Ｒ", "北千住 学びピア21", date(2024, 1, 20), date(2024, 1, 20))
	monday := record("平日例会", "新宿", date(2024, 1, 22), date(2024, 1, 22))
	span := record("新春オープン", "中野", date(2024, 1, 5), date(2024, 1, 8))

	tests := []struct {
		name   string
		filter *Filter
		rec    *event.Record
		want   bool
	}{
		{name: "empty filter matches all", filter: New(), rec: monday, want: true},
		{name: "from excludes earlier", filter: &Filter{From: date(2024, 1, 21)}, rec: saturday, want: false},
		{name: "from is inclusive", filter: &Filter{From: date(2024, 1, 20)}, rec: saturday, want: true},
		{name: "to excludes later", filter: &Filter{To: date(2024, 1, 21)}, rec: monday, want: false},
		{name: "span overlapping from", filter: &Filter{From: date(2024, 1, 7)}, rec: span, want: true},
		{name: "weekday rejected", filter: &Filter{WeekendsOnly: true}, rec: monday, want: false},
		{name: "saturday accepted", filter: &Filter{WeekendsOnly: true}, rec: saturday, want: true},
		{name: "span containing a weekend", filter: &Filter{WeekendsOnly: true}, rec: span, want: true},
		{name: "full width name", filter: &Filter{Names: []string{"公式戦2R"}}, rec: saturday, want: true},
		{name: "venue any of", filter: &Filter{Venues: []string{"渋谷", "新宿"}}, rec: monday, want: true},
		{name: "venue miss", filter: &Filter{Venues: []string{"渋谷"}}, rec: monday, want: false},
		{name: "organizer case", filter: &Filter{Organizers: []string{"kitasenjyu"}}, rec: monday, want: true},
		{
			name:   "all criteria",
			filter: &Filter{From: date(2024, 1, 1), Venues: []string{"北千住"}, WeekendsOnly: true},
			rec:    saturday,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.rec); got != tt.want {
				t.Errorf("Filter.Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	records := []*event.Record{
		record("a", "北千住", date(2024, 1, 20), date(2024, 1, 20)),
		record("b", "新宿", date(2024, 1, 22), date(2024, 1, 22)),
		record("c", "北千住", date(2024, 2, 17), date(2024, 2, 17)),
	}

	if got := New().Apply(records); len(got) != 3 {
		t.Errorf("empty filter kept %d records, want 3", len(got))
	}

	f := &Filter{Venues: []string{"北千住"}, To: date(2024, 1, 31)}
	got := f.Apply(records)
	if len(got) != 1 || got[0].Name != "a" {
		t.Errorf("Apply() = %v, want only record a", got)
	}
}

func TestFilter_String(t *testing.T) {
	if got := New().String(); got != "No active filters" {
		t.Errorf("String() = %q", got)
	}

	f := &Filter{From: date(2024, 2, 1), Venues: []string{"北千住"}, WeekendsOnly: true}
	want := "From: 2024-02-01 | Venues: 北千住 | Weekends only"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseBound(t *testing.T) {
	d, err := ParseBound("")
	if err != nil || !d.IsSentinel() {
		t.Errorf("ParseBound(\"\") = %v, %v", d, err)
	}

	d, err = ParseBound("2024-02-01")
	if err != nil || d != date(2024, 2, 1) {
		t.Errorf("ParseBound() = %v, %v", d, err)
	}

	if _, err := ParseBound("2024/02/01"); err == nil {
		t.Error("ParseBound() should reject other layouts")
	}
}
