package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/scraper"
)

// fixtureFetcher serves the scraper fixtures by source URL.
type fixtureFetcher struct {
	t     *testing.T
	pages map[string]string
}

func (f *fixtureFetcher) Fetch(_ context.Context, url, _ string) (string, error) {
	name, ok := f.pages[url]
	if !ok {
		return "", scraper.ErrFetch
	}
	data, err := os.ReadFile(filepath.Join("..", "scraper", "testdata", name))
	if err != nil {
		f.t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data), nil
}

func runCLI(t *testing.T, pages map[string]string, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.fetcher = &fixtureFetcher{t: t, pages: pages}
	a.now = func() time.Time { return time.Date(2024, time.January, 10, 12, 0, 0, 0, event.JST) }

	code := execute(a, args)
	return code, stdout.String(), stderr.String()
}

var allPages = map[string]string{
	"https://8by8.hatenablog.com/":    "club8x8.html",
	"http://chess.m1.valueserver.jp/": "kitasenjyu.html",
	"https://www.jcf.or.jp/schedule/": "ncs.html",
}

func TestRun_JSON(t *testing.T) {
	code, stdout, stderr := runCLI(t, allPages, "run", "--format", "json")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, ExitSuccess, stderr)
	}

	var result OutputResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if len(result.Sources) != 3 {
		t.Fatalf("sources = %d, want 3", len(result.Sources))
	}
	if result.RecordCount != 6 {
		t.Errorf("RecordCount = %d, want 6", result.RecordCount)
	}
	if result.Sources[0].Source != scraper.KeywordClub8x8 {
		t.Errorf("first source = %q, want run order", result.Sources[0].Source)
	}
}

func TestRun_TextReport(t *testing.T) {
	code, stdout, _ := runCLI(t, allPages, "--sources", "kitasenjyu")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
	}

	for _, want := range []string{
		"kitasenjyu (2 records):",
		"2024-01-20",
		"2024-02-17",
		"北千住 学びピア21",
		"Total: 2 records across 1 sources",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRun_SourceFailuresAreIsolated(t *testing.T) {
	pages := map[string]string{
		"https://www.jcf.or.jp/schedule/": "ncs.html",
	}

	code, stdout, _ := runCLI(t, pages, "--sources", "unknown_club,8x8_chess_club,ncs")
	if code != ExitSourcesFailed {
		t.Fatalf("exit code = %d, want %d", code, ExitSourcesFailed)
	}

	for _, want := range []string{
		"unknown_club: FAILED (config error): Not supported keyword",
		"8x8_chess_club: FAILED (retrieval error)",
		"ncs (2 records):",
		"(2 failed)",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRun_SinkErrorKeepsReport(t *testing.T) {
	t.Setenv("CHESS_EVENTS_SINK_DSN", "")

	code, stdout, stderr := runCLI(t, allPages, "--sources", "ncs", "--sink", "postgres")
	if code != ExitSourcesFailed {
		t.Fatalf("exit code = %d, want %d", code, ExitSourcesFailed)
	}
	if !strings.Contains(stdout, "ncs (2 records):") {
		t.Errorf("records should still be reported:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Records were not saved: missing database credentials") {
		t.Errorf("sink error not reported:\n%s", stdout)
	}
	if !strings.Contains(stderr, "sink unavailable") {
		t.Errorf("sink error not logged:\n%s", stderr)
	}
}

func TestRun_JSONSink(t *testing.T) {
	dir := t.TempDir()

	code, _, stderr := runCLI(t, allPages, "--sources", "ncs", "--sink", "json", "--data-dir", dir)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "snapshot_ncs.json")); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}

func TestRun_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess_events.prom")

	code, _, _ := runCLI(t, allPages, "--sources", "ncs", "--metrics-file", path)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), `chess_events_records_total{source="ncs"}`) {
		t.Errorf("metrics file missing records counter:\n%s", data)
	}
}

func TestRun_SourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - keyword: ncs
    url: https://mirror.example/
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	pages := map[string]string{"https://mirror.example/": "ncs.html"}

	code, stdout, _ := runCLI(t, pages, "--sources", "ncs", "--sources-file", path)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d\n%s", code, stdout)
	}
	if !strings.Contains(stdout, "ncs (2 records):") {
		t.Errorf("override URL not used:\n%s", stdout)
	}
}

func TestRun_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "format", args: []string{"--format", "xml"}, want: "invalid format"},
		{name: "sort", args: []string{"--sort", "venue"}, want: "invalid sort order"},
		{name: "sink", args: []string{"--sink", "s3"}, want: "sink.kind"},
		{name: "log level", args: []string{"--log-level", "trace"}, want: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, allPages, tt.args...)
			if code != ExitError {
				t.Errorf("exit code = %d, want %d", code, ExitError)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want it to mention %q", stderr, tt.want)
			}
		})
	}
}

func TestSourcesCmd(t *testing.T) {
	code, stdout, _ := runCLI(t, nil, "sources", "--sources", "ncs")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("listed %d sources, want 3:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[2], "*  ncs") {
		t.Errorf("enabled source not marked: %q", lines[2])
	}
	if strings.HasPrefix(lines[0], "*") {
		t.Errorf("disabled source marked: %q", lines[0])
	}
}

func TestParseDateCmd(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		want     []string
	}{
		{
			name:     "full width slash",
			args:     []string{"parse-date", "１／２０（土）", "--grammar", "slash", "--ref", "2024-06-01"},
			wantCode: ExitSuccess,
			want:     []string{"start: 2024-01-20 (year=inferred month=present day=present)"},
		},
		{
			name:     "kanji",
			args:     []string{"parse-date", "2024年1月7日(日)"},
			wantCode: ExitSuccess,
			want:     []string{"start: 2024-01-07"},
		},
		{
			name:     "range",
			args:     []string{"parse-date", "2024/1/7(日)-1/8(月祝)", "--grammar", "slash", "--range"},
			wantCode: ExitSuccess,
			want:     []string{"start: 2024-01-07", "end: 2024-01-08"},
		},
		{
			name:     "defaulted month",
			args:     []string{"parse-date", "2024年X月7日"},
			wantCode: ExitError,
			want:     []string{"start: 2024-10-07 (year=present month=defaulted day=present)"},
		},
		{
			name:     "bad grammar",
			args:     []string{"parse-date", "1/7", "--grammar", "iso"},
			wantCode: ExitError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCLI(t, nil, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			for _, want := range tt.want {
				if !strings.Contains(stdout, want) {
					t.Errorf("output missing %q:\n%s", want, stdout)
				}
			}
		})
	}
}

func TestRun_Filters(t *testing.T) {
	code, stdout, _ := runCLI(t, allPages, "--sources", "kitasenjyu", "--from", "2024-02-01")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "kitasenjyu (1 records):") || strings.Contains(stdout, "2024-01-20") {
		t.Errorf("January meeting should be filtered out:\n%s", stdout)
	}

	code, _, stderr := runCLI(t, allPages, "--from", "2024-03-01", "--to", "2024-02-01")
	if code != ExitError {
		t.Errorf("exit code = %d, want %d for an inverted range", code, ExitError)
	}
	if !strings.Contains(stderr, "is before --from") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_Period(t *testing.T) {
	// the clock is 2024-01-10, so 2月 is February 2024
	code, stdout, _ := runCLI(t, allPages, "--sources", "kitasenjyu", "--period", "２月")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "2024-02-17") || strings.Contains(stdout, "2024-01-20") {
		t.Errorf("period filter not applied:\n%s", stdout)
	}

	code, _, _ = runCLI(t, allPages, "--period", "2月", "--from", "2024-01-01")
	if code != ExitError {
		t.Errorf("exit code = %d, want %d when --period and --from are combined", code, ExitError)
	}
}

func TestRun_DryRunSink(t *testing.T) {
	code, stdout, _ := runCLI(t, allPages, "--sources", "ncs", "--sink", "dryrun")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "--- Record 1/2 ---") {
		t.Errorf("dry run output missing:\n%s", stdout)
	}
}

func TestRun_DryRunSinkWithJSON(t *testing.T) {
	code, stdout, stderr := runCLI(t, allPages, "--sources", "ncs", "--sink", "dryrun", "--format", "json")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}

	var result OutputResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("stdout is not a single JSON document: %v\n%s", err, stdout)
	}
	if result.Sources[0].Saved != 2 {
		t.Errorf("Saved = %d, want 2", result.Sources[0].Saved)
	}
	if !strings.Contains(stderr, "--- Record 1/2 ---") {
		t.Errorf("dry run output should go to stderr:\n%s", stderr)
	}
}
