package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/logger"
)

// DB is the subset of *pgxpool.Pool the postgres sink uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS chess_events (
	id         UUID PRIMARY KEY,
	source     TEXT NOT NULL,
	name       TEXT NOT NULL,
	organizer  TEXT NOT NULL,
	start_date DATE NOT NULL,
	end_date   DATE NOT NULL,
	open_time  TEXT NOT NULL,
	revenue    TEXT NOT NULL,
	fee        TEXT NOT NULL,
	source_url TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL,
	CHECK (end_date >= start_date)
)`

const upsertSQL = `INSERT INTO chess_events
	(id, source, name, organizer, start_date, end_date, open_time, revenue, fee, source_url, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	organizer = EXCLUDED.organizer,
	fee = EXCLUDED.fee,
	source_url = EXCLUDED.source_url,
	scraped_at = EXCLUDED.scraped_at`

// Postgres upserts records into the chess_events table.
type Postgres struct {
	db DB
}

// ConnectPostgres opens a pool for dsn, checks it and creates the table if needed.
func ConnectPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping to database: %w", err)
	}

	p := NewPostgres(pool)
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Name() string { return KindPostgres }

// EnsureSchema creates the chess_events table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save upserts each record in its own transaction.
func (p *Postgres) Save(ctx context.Context, records []*event.Record) []Outcome {
	outcomes := make([]Outcome, 0, len(records))
	for _, rec := range records {
		err := p.upsert(ctx, rec)
		if err != nil {
			logger.Warn("failed to save record", logger.Fields{
				"source": rec.Source,
				"id":     rec.ID,
				"error":  err.Error(),
			})
		}
		outcomes = append(outcomes, Outcome{RecordID: rec.ID, Err: err})
	}
	return outcomes
}

func (p *Postgres) upsert(ctx context.Context, rec *event.Record) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(ctx, upsertSQL, upsertArgs(rec)...)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func upsertArgs(rec *event.Record) []any {
	return []any{
		rec.ID,
		rec.Source,
		rec.Name,
		rec.Organizer,
		rec.StartDate.Time(time.UTC),
		rec.EndDate.Time(time.UTC),
		rec.OpenTime,
		rec.Revenue,
		rec.Fee,
		rec.SourceURL,
		rec.ScrapedAt,
	}
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
