package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	AddRecords("test-src", 3)
	IncDropped("test-src")
	IncDropped("test-src")
	IncSourceError("test-src", "retrieval")
	AddSaved("test-src", "ok", 2)
	AddSaved("test-src", "failed", 0)

	if got := testutil.ToFloat64(recordsTotal.WithLabelValues("test-src")); got != 3 {
		t.Errorf("records_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(droppedTotal.WithLabelValues("test-src")); got != 2 {
		t.Errorf("units_dropped_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(sourceErrorsTotal.WithLabelValues("test-src", "retrieval")); got != 1 {
		t.Errorf("source_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(savedTotal.WithLabelValues("test-src", "ok")); got != 2 {
		t.Errorf("records_saved_total{ok} = %v, want 2", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	ObserveScrape("textfile-src", 250*time.Millisecond)
	MarkRun(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "chess_events.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}

	for _, want := range []string{
		"chess_events_scrape_duration_seconds_count{source=\"textfile-src\"} 1",
		"chess_events_last_run_timestamp_seconds ",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
