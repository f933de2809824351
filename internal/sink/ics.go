package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pfrederiksen/chess-events/internal/calendar"
	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/storage"
)

// ErrMissingPath is returned when the ics sink has no output file.
var ErrMissingPath = errors.New("ics sink needs an output path")

// ICS keeps every record saved during a run and rewrites one calendar file after each Save.
type ICS struct {
	path     string
	name     string
	now      func() time.Time
	snapshot *event.Snapshot
}

// NewICS creates an iCalendar sink writing to path.
func NewICS(path, calendarName string) (*ICS, error) {
	if path == "" {
		return nil, ErrMissingPath
	}
	path, err := storage.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating calendar directory: %w", err)
	}
	return &ICS{
		path:     path,
		name:     calendarName,
		now:      time.Now,
		snapshot: event.NewSnapshot(""),
	}, nil
}

func (c *ICS) Name() string { return KindICS }

// Save adds records to the feed and rewrites the file.
func (c *ICS) Save(_ context.Context, records []*event.Record) []Outcome {
	c.snapshot.Merge(records)

	content := calendar.GenerateICS(c.snapshot.Sorted(), c.name, c.now())
	if err := os.WriteFile(c.path, []byte(content), 0644); err != nil {
		return failAll(records, fmt.Errorf("writing calendar: %w", err))
	}
	return failAll(records, nil)
}

func (c *ICS) Close() error { return nil }
