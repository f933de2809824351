package sink

import (
	"context"

	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/logger"
	"github.com/pfrederiksen/chess-events/internal/storage"
)

// DefaultDataDir is where JSON snapshots are written when no directory is configured.
const DefaultDataDir = "~/.local/share/chess-events"

// JSON merges records into per-source snapshot files.
type JSON struct {
	store *storage.Storage
}

// NewJSON creates a JSON sink writing to dataDir.
func NewJSON(dataDir string) (*JSON, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	store, err := storage.New(dataDir)
	if err != nil {
		return nil, err
	}
	return &JSON{store: store}, nil
}

func (j *JSON) Name() string { return KindJSON }

// Save merges records into the snapshot of their source. A snapshot is written
// whole, so the records of one source succeed or fail together.
func (j *JSON) Save(_ context.Context, records []*event.Record) []Outcome {
	bySource := make(map[string][]*event.Record)
	order := make([]string, 0)
	for _, rec := range records {
		if _, ok := bySource[rec.Source]; !ok {
			order = append(order, rec.Source)
		}
		bySource[rec.Source] = append(bySource[rec.Source], rec)
	}

	failed := make(map[string]error)
	for _, source := range order {
		added, err := j.store.MergeRecords(source, bySource[source])
		if err != nil {
			failed[source] = err
			continue
		}
		logger.Debug("snapshot updated", logger.Fields{
			"source": source,
			"added":  added,
			"dir":    j.store.Dir(),
		})
	}

	outcomes := make([]Outcome, len(records))
	for i, rec := range records {
		outcomes[i] = Outcome{RecordID: rec.ID, Err: failed[rec.Source]}
	}
	return outcomes
}

func (j *JSON) Close() error { return nil }
