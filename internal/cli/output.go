package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// SourceOutput is the report of one source
type SourceOutput struct {
	Source     string          `json:"source"`
	Records    []*event.Record `json:"records"`
	Error      string          `json:"error,omitempty"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Saved      int             `json:"saved"`
	SaveFailed int             `json:"save_failed,omitempty"`
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt   time.Time       `json:"checked_at"`
	Sources     []*SourceOutput `json:"sources"`
	RecordCount int             `json:"record_count"`
	SinkError   string          `json:"sink_error,omitempty"`
}

// newSourceOutput converts a pipeline result, sorting a copy of its records.
func newSourceOutput(res *pipeline.SourceResult, order SortOrder) *SourceOutput {
	records := append([]*event.Record(nil), res.Records...)
	sortRecords(records, order)

	out := &SourceOutput{
		Source:     res.Keyword,
		Records:    records,
		SaveFailed: res.SaveFailures(),
	}
	out.Saved = len(res.Outcomes) - out.SaveFailed
	if res.Err != nil {
		out.Error = res.Err.Err.Error()
		out.ErrorKind = string(res.Err.Kind)
	}
	return out
}

// newOutputResult builds the report of a finished run.
func newOutputResult(summary *pipeline.Summary, order SortOrder) *OutputResult {
	result := &OutputResult{
		CheckedAt: summary.FinishedAt.UTC(),
		Sources:   make([]*SourceOutput, 0, len(summary.Results)),
	}
	for _, res := range summary.Results {
		so := newSourceOutput(res, order)
		result.RecordCount += len(so.Records)
		result.Sources = append(result.Sources, so)
	}
	if summary.SinkErr != nil {
		result.SinkError = summary.SinkErr.Error()
	}
	return result
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeSourceText outputs one source as an aligned table
func writeSourceText(w io.Writer, so *SourceOutput, verbose bool) {
	if so.Error != "" {
		fmt.Fprintf(w, "\n%s: FAILED (%s error): %s\n", so.Source, so.ErrorKind, so.Error)
		return
	}

	fmt.Fprintf(w, "\n%s (%d records):\n", so.Source, len(so.Records))
	if len(so.Records) == 0 {
		fmt.Fprintln(w, "  No events found.")
		return
	}

	rows := make([][]string, 0, len(so.Records))
	for _, rec := range so.Records {
		rows = append(rows, []string{dateRange(rec), rec.OpenTime, rec.Name, rec.Revenue, rec.Fee})
	}
	widths := columnWidths(rows)

	for i, row := range rows {
		var sb strings.Builder
		sb.WriteString("  ")
		for j, cell := range row {
			if j == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[j]))
			sb.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))

		if verbose {
			rec := so.Records[i]
			fmt.Fprintf(w, "       ID: %s\n", rec.ID)
			fmt.Fprintf(w, "       Organizer: %s\n", rec.Organizer)
			fmt.Fprintf(w, "       URL: %s\n", rec.SourceURL)
		}
	}

	if so.SaveFailed > 0 {
		fmt.Fprintf(w, "  (%d of %d records could not be saved)\n", so.SaveFailed, so.SaveFailed+so.Saved)
	}
}

func writeTotals(w io.Writer, result *OutputResult) {
	failed, unsaved := 0, 0
	for _, so := range result.Sources {
		if so.Error != "" {
			failed++
		}
		unsaved += so.SaveFailed
	}

	fmt.Fprintf(w, "\nTotal: %d records across %d sources", result.RecordCount, len(result.Sources))
	if failed > 0 {
		fmt.Fprintf(w, " (%d failed)", failed)
	}
	fmt.Fprintln(w)

	if unsaved > 0 {
		fmt.Fprintf(w, "%d records could not be saved\n", unsaved)
	}
	if result.SinkError != "" {
		fmt.Fprintf(w, "Records were not saved: %s\n", result.SinkError)
	}
}

// columnWidths returns the display width of the widest cell per column.
func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	return widths
}

func dateRange(rec *event.Record) string {
	if rec.SingleDay() {
		return rec.StartDate.String()
	}
	return rec.StartDate.String() + ".." + rec.EndDate.String()
}
