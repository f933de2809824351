package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pfrederiksen/chess-events/internal/event"
)

// ErrRecordNotFound is returned by GetRecordByID for IDs not in the snapshot.
var ErrRecordNotFound = errors.New("record not found")

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Storage handles persistence of per-source record snapshots
type Storage struct {
	dataDir string
	now     func() time.Time
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
		now:     time.Now,
	}, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if len(path) < 2 || path[:2] != "~/" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Dir returns the directory snapshots are written to.
func (s *Storage) Dir() string {
	return s.dataDir
}

// snapshotPath returns the path to the snapshot file of source
func (s *Storage) snapshotPath(source string) string {
	name := unsafeName.ReplaceAllString(source, "_")
	if name == "" {
		name = "unnamed"
	}
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%s.json", name))
}

// LoadSnapshot loads the snapshot of source from disk
func (s *Storage) LoadSnapshot(source string) (*event.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(source))
	if err != nil {
		if os.IsNotExist(err) {
			// No previous snapshot, return empty one
			return event.NewSnapshot(source), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot event.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Records == nil {
		snapshot.Records = make(map[string]*event.Record)
	}
	if snapshot.Source == "" {
		snapshot.Source = source
	}
	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to disk under its source
func (s *Storage) SaveSnapshot(snapshot *event.Snapshot) error {
	snapshot.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	// atomic replace
	path := s.snapshotPath(snapshot.Source)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// MergeRecords adds records to the stored snapshot of source and returns how many were new.
func (s *Storage) MergeRecords(source string, records []*event.Record) (int, error) {
	snapshot, err := s.LoadSnapshot(source)
	if err != nil {
		return 0, err
	}
	added := snapshot.Merge(records)
	if err := s.SaveSnapshot(snapshot); err != nil {
		return 0, err
	}
	return added, nil
}

// GetRecordByID retrieves a record by ID from the snapshot of source
func (s *Storage) GetRecordByID(source, id string) (*event.Record, error) {
	snapshot, err := s.LoadSnapshot(source)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if rec, exists := snapshot.Records[id]; exists {
		return rec, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}
