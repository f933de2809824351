package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/chess-events/internal/event"
)

// Kinds accepted by New.
const (
	KindNone     = "none"
	KindDryRun   = "dryrun"
	KindJSON     = "json"
	KindICS      = "ics"
	KindPostgres = "postgres"
)

var (
	// ErrUnknownKind is returned by New for an unsupported sink kind.
	ErrUnknownKind = errors.New("unknown sink kind")
	// ErrMissingCredentials is returned when the postgres sink has no DSN.
	ErrMissingCredentials = errors.New("missing database credentials")
)

// Outcome is the result of saving one record. Err is nil on success.
type Outcome struct {
	RecordID string
	Err      error
}

// Sink stores records.
type Sink interface {
	Name() string
	// Save stores records and returns one Outcome per record, in order.
	Save(ctx context.Context, records []*event.Record) []Outcome
	Close() error
}

// Config selects and configures a sink.
type Config struct {
	Kind         string
	DSN          string
	DataDir      string
	ICSPath      string
	CalendarName string
	Output       io.Writer // dryrun output, stdout when nil
}

// New builds the sink for cfg.Kind. It returns a nil Sink for KindNone or an empty kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", KindNone:
		return nil, nil
	case KindDryRun:
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		return NewDryRun(out), nil
	case KindJSON:
		s, err := NewJSON(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindICS:
		s, err := NewICS(cfg.ICSPath, cfg.CalendarName)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindPostgres:
		if cfg.DSN == "" {
			return nil, ErrMissingCredentials
		}
		s, err := ConnectPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
}

// Failed counts outcomes that carry an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// failAll reports err for every record.
func failAll(records []*event.Record, err error) []Outcome {
	out := make([]Outcome, len(records))
	for i, rec := range records {
		out[i] = Outcome{RecordID: rec.ID, Err: err}
	}
	return out
}
