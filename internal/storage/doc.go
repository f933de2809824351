// Package storage provides JSON-based persistence for record snapshots.
//
// Each source has its own snapshot file (snapshot_<source>.json) in the data directory.
// Records are merged by ID across runs, so a snapshot accumulates every meeting a source
// has ever announced. The default storage location is ~/.local/share/chess-events/.
package storage
