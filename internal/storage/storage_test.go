package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/chess-events/internal/event"
)

func testRecord(source string, day int, revenue string) *event.Record {
	start := event.CalendarDate{Year: 2024, Month: time.January, Day: day}
	return &event.Record{
		ID:        event.GenerateID(source, "meeting", start, start, revenue, "13:00"),
		Source:    source,
		Name:      "meeting",
		Organizer: "club",
		StartDate: start,
		EndDate:   start,
		OpenTime:  "13:00",
		Revenue:   revenue,
		Fee:       event.Unknown,
		SourceURL: "https://example.com/",
		ScrapedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetRecordByID(t *testing.T) {
	tmpDir := t.TempDir()

	storage, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	rec1 := testRecord("ncs", 7, "Tokyo")
	rec2 := testRecord("ncs", 14, "Osaka")

	tests := []struct {
		name    string
		setup   func()
		source  string
		id      string
		want    *event.Record
		wantErr bool
	}{
		{
			name: "Successfully retrieve record",
			setup: func() {
				snapshot := event.NewSnapshot("ncs")
				snapshot.Merge([]*event.Record{rec1, rec2})
				if err := storage.SaveSnapshot(snapshot); err != nil {
					t.Fatalf("Failed to save snapshot: %v", err)
				}
			},
			source: "ncs",
			id:     rec1.ID,
			want:   rec1,
		},
		{
			name:   "Retrieve different record from same snapshot",
			source: "ncs",
			id:     rec2.ID,
			want:   rec2,
		},
		{
			name:    "Record not found in snapshot",
			source:  "ncs",
			id:      "nonexistent-id",
			wantErr: true,
		},
		{
			name:    "Record only in another source",
			source:  "kitasenjyu",
			id:      rec1.ID,
			wantErr: true,
		},
		{
			name: "No snapshot file exists",
			setup: func() {
				os.Remove(filepath.Join(tmpDir, "snapshot_ncs.json"))
			},
			source:  "ncs",
			id:      rec1.ID,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}

			got, err := storage.GetRecordByID(tt.source, tt.id)

			if tt.wantErr {
				if !errors.Is(err, ErrRecordNotFound) {
					t.Errorf("GetRecordByID() error = %v, want ErrRecordNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetRecordByID() error = %v", err)
			}
			if got.ID != tt.want.ID || got.StartDate != tt.want.StartDate || got.Revenue != tt.want.Revenue {
				t.Errorf("GetRecordByID() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMergeRecords(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	first := []*event.Record{testRecord("ncs", 7, "Tokyo"), testRecord("ncs", 14, "Osaka")}
	added, err := storage.MergeRecords("ncs", first)
	if err != nil {
		t.Fatalf("MergeRecords() error: %v", err)
	}
	if added != 2 {
		t.Errorf("first merge added %d, want 2", added)
	}

	second := []*event.Record{testRecord("ncs", 14, "Osaka"), testRecord("ncs", 21, "Kyoto")}
	added, err = storage.MergeRecords("ncs", second)
	if err != nil {
		t.Fatalf("MergeRecords() error: %v", err)
	}
	if added != 1 {
		t.Errorf("second merge added %d, want 1", added)
	}

	snapshot, err := storage.LoadSnapshot("ncs")
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	if len(snapshot.Records) != 3 {
		t.Errorf("snapshot holds %d records, want 3", len(snapshot.Records))
	}
	if snapshot.UpdatedAt == "" {
		t.Error("UpdatedAt should be set on save")
	}
	sorted := snapshot.Sorted()
	if sorted[0].StartDate.Day != 7 || sorted[2].StartDate.Day != 21 {
		t.Errorf("Sorted() order wrong: %v, %v", sorted[0].StartDate, sorted[2].StartDate)
	}
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	dir := t.TempDir()
	storage, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "snapshot_ncs.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := storage.LoadSnapshot("ncs"); err == nil || !strings.Contains(err.Error(), "parsing snapshot") {
		t.Errorf("LoadSnapshot() error = %v, want parse error", err)
	}
}

func TestSnapshotPath(t *testing.T) {
	s := &Storage{dataDir: "/data"}

	tests := []struct {
		source string
		want   string
	}{
		{"ncs", "/data/snapshot_ncs.json"},
		{"8x8_chess_club", "/data/snapshot_8x8_chess_club.json"},
		{"../etc/passwd", "/data/snapshot__etc_passwd.json"},
		{"", "/data/snapshot_unnamed.json"},
	}

	for _, tt := range tests {
		if got := s.snapshotPath(tt.source); got != tt.want {
			t.Errorf("snapshotPath(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandHome("~/.local/share/chess-events")
	if err != nil {
		t.Fatalf("ExpandHome() error: %v", err)
	}
	if want := filepath.Join(home, ".local/share/chess-events"); got != want {
		t.Errorf("ExpandHome() = %q, want %q", got, want)
	}

	if got, _ := ExpandHome("/var/lib/x"); got != "/var/lib/x" {
		t.Errorf("ExpandHome() changed an absolute path: %q", got)
	}
}
