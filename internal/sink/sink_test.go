package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pfrederiksen/chess-events/internal/storage"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		cfg      Config
		wantNil  bool
		wantName string
		wantErr  error
	}{
		{name: "empty kind", cfg: Config{}, wantNil: true},
		{name: "none", cfg: Config{Kind: "none"}, wantNil: true},
		{name: "dryrun", cfg: Config{Kind: "DryRun", Output: &bytes.Buffer{}}, wantName: KindDryRun},
		{name: "json", cfg: Config{Kind: "json", DataDir: dir}, wantName: KindJSON},
		{name: "ics", cfg: Config{Kind: "ics", ICSPath: filepath.Join(dir, "cal", "events.ics")}, wantName: KindICS},
		{name: "ics without path", cfg: Config{Kind: "ics"}, wantErr: ErrMissingPath},
		{name: "unknown", cfg: Config{Kind: "s3"}, wantErr: ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(context.Background(), tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				if s != nil {
					t.Error("New() should return a nil sink on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if tt.wantNil {
				if s != nil {
					t.Errorf("New() = %v, want nil sink", s)
				}
				return
			}
			if s.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.wantName)
			}
			if err := s.Close(); err != nil {
				t.Errorf("Close() error: %v", err)
			}
		})
	}
}

func TestDryRun_Save(t *testing.T) {
	var buf bytes.Buffer
	records := sampleRecords()

	outcomes := NewDryRun(&buf).Save(context.Background(), records)

	if Failed(outcomes) != 0 {
		t.Errorf("dry run reported %d failures", Failed(outcomes))
	}
	if got := strings.Count(buf.String(), "--- Record"); got != 2 {
		t.Errorf("printed %d records, want 2", got)
	}
	if !strings.Contains(buf.String(), "2024-01-07..2024-01-08 新春オープン") {
		t.Errorf("output missing record line:\n%s", buf.String())
	}
}

func TestJSON_Save(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSON(dir)
	if err != nil {
		t.Fatalf("NewJSON() error: %v", err)
	}

	records := sampleRecords()
	records[1].Source = "kitasenjyu"

	outcomes := s.Save(context.Background(), records)
	if Failed(outcomes) != 0 {
		t.Fatalf("Save() failures: %+v", outcomes)
	}

	store, err := storage.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		got, err := store.GetRecordByID(rec.Source, rec.ID)
		if err != nil {
			t.Errorf("record %s not stored under %s: %v", rec.ID, rec.Source, err)
			continue
		}
		if got.Name != rec.Name {
			t.Errorf("stored Name = %q, want %q", got.Name, rec.Name)
		}
	}
}

func TestJSON_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSON(dir)
	if err != nil {
		t.Fatalf("NewJSON() error: %v", err)
	}

	// a directory where the snapshot file should be makes the write fail
	if err := os.Mkdir(filepath.Join(dir, "snapshot_ncs.json"), 0755); err != nil {
		t.Fatal(err)
	}

	outcomes := s.Save(context.Background(), sampleRecords())
	if Failed(outcomes) != 2 {
		t.Errorf("Failed() = %d, want 2", Failed(outcomes))
	}
}

func TestICS_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ics")
	s, err := NewICS(path, "Chess")
	if err != nil {
		t.Fatalf("NewICS() error: %v", err)
	}

	records := sampleRecords()
	if Failed(s.Save(context.Background(), records[:1])) != 0 {
		t.Fatal("first save failed")
	}
	if Failed(s.Save(context.Background(), records)) != 0 {
		t.Fatal("second save failed")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading calendar: %v", err)
	}
	// records saved twice appear once
	if got := strings.Count(string(data), "BEGIN:VEVENT"); got != 2 {
		t.Errorf("calendar has %d events, want 2", got)
	}
	if !strings.Contains(string(data), "X-WR-CALNAME:Chess") {
		t.Error("calendar name missing")
	}
}
