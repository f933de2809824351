package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/logger"
)

// DryRun prints what would be saved without storing anything
type DryRun struct {
	out io.Writer
}

// NewDryRun creates a new dry-run sink
func NewDryRun(out io.Writer) *DryRun {
	return &DryRun{out: out}
}

func (d *DryRun) Name() string { return KindDryRun }

// Save prints the records that would be stored
func (d *DryRun) Save(_ context.Context, records []*event.Record) []Outcome {
	outcomes := make([]Outcome, 0, len(records))
	for i, rec := range records {
		fmt.Fprintf(d.out, "--- Record %d/%d ---\n", i+1, len(records))
		fmt.Fprintf(d.out, "%s %s..%s %s @ %s (%s)\n\n",
			rec.Source, rec.StartDate, rec.EndDate, rec.Name, rec.Revenue, rec.ID)
		outcomes = append(outcomes, Outcome{RecordID: rec.ID})
	}
	if len(records) > 0 {
		logger.Debug("dry run, nothing saved", logger.Fields{
			"source":  records[0].Source,
			"records": len(records),
		})
	}
	return outcomes
}

func (d *DryRun) Close() error { return nil }
