package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/filter"
	"github.com/pfrederiksen/chess-events/internal/logger"
	"github.com/pfrederiksen/chess-events/internal/metrics"
	"github.com/pfrederiksen/chess-events/internal/scraper"
	"github.com/pfrederiksen/chess-events/internal/sink"
)

// ErrorKind classifies why a source produced no records.
type ErrorKind string

const (
	// KindConfig means the source could not be set up, e.g. an unknown keyword.
	KindConfig ErrorKind = "config"
	// KindRetrieval means the page could not be fetched, decoded or parsed.
	KindRetrieval ErrorKind = "retrieval"
)

// ErrPanic wraps a panic recovered from an adapter or a sink.
var ErrPanic = errors.New("panic recovered")

// SourceError is the failure of one source.
type SourceError struct {
	Keyword string
	Kind    ErrorKind
	Err     error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Keyword, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// AdapterFactory builds the adapter for a source keyword.
type AdapterFactory interface {
	Create(keyword string) (scraper.Adapter, error)
}

// SourceResult is what one source contributed to a run.
type SourceResult struct {
	Keyword  string
	Records  []*event.Record
	Err      *SourceError
	Outcomes []sink.Outcome
	Duration time.Duration
}

// SaveFailures counts records the sink rejected.
func (r *SourceResult) SaveFailures() int {
	return sink.Failed(r.Outcomes)
}

// Summary collects the results of a run in source order.
type Summary struct {
	Results    []*SourceResult
	SinkErr    error // set when the configured sink could not be built
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed reports whether any source failed or any record could not be saved.
func (s *Summary) Failed() bool {
	if s.SinkErr != nil {
		return true
	}
	for _, r := range s.Results {
		if r.Err != nil || r.SaveFailures() > 0 {
			return true
		}
	}
	return false
}

// Records returns the records of every source in run order.
func (s *Summary) Records() []*event.Record {
	out := make([]*event.Record, 0)
	for _, r := range s.Results {
		out = append(out, r.Records...)
	}
	return out
}

// ReportFunc receives each source's result as soon as it has been scraped, before saving.
type ReportFunc func(*SourceResult)

// Driver runs sources sequentially.
type Driver struct {
	factory AdapterFactory
	sink    sink.Sink
	report  ReportFunc
	filter  *filter.Filter
	now     func() time.Time
}

// Option configures a Driver
type Option func(*Driver)

// WithSink saves each source's records to s.
func WithSink(s sink.Sink) Option {
	return func(d *Driver) {
		d.sink = s
	}
}

// WithReporter calls fn for every source result.
func WithReporter(fn ReportFunc) Option {
	return func(d *Driver) {
		d.report = fn
	}
}

// WithFilter keeps only the records f matches; dropped records are neither
// reported nor saved.
func WithFilter(f *filter.Filter) Option {
	return func(d *Driver) {
		d.filter = f
	}
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// NewDriver creates a driver resolving keywords through factory.
func NewDriver(factory AdapterFactory, opts ...Option) *Driver {
	d := &Driver{
		factory: factory,
		report:  func(*SourceResult) {},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes keywords in order. It never fails as a whole; per-source
// failures are recorded on the returned Summary.
func (d *Driver) Run(ctx context.Context, keywords []string) *Summary {
	summary := &Summary{StartedAt: d.now()}

	for _, keyword := range keywords {
		res := d.runSource(ctx, keyword)

		d.report(res)

		if d.sink != nil && len(res.Records) > 0 {
			res.Outcomes = save(ctx, d.sink, res.Records)
			failed := res.SaveFailures()
			metrics.AddSaved(keyword, "ok", len(res.Outcomes)-failed)
			metrics.AddSaved(keyword, "failed", failed)
			if failed > 0 {
				logger.Warn("some records were not saved", logger.Fields{
					"source": keyword,
					"sink":   d.sink.Name(),
					"failed": failed,
					"total":  len(res.Outcomes),
				})
			}
		}

		summary.Results = append(summary.Results, res)
	}

	summary.FinishedAt = d.now()
	metrics.MarkRun(summary.FinishedAt)
	return summary
}

func (d *Driver) runSource(ctx context.Context, keyword string) *SourceResult {
	res := &SourceResult{Keyword: keyword}

	if err := ctx.Err(); err != nil {
		res.Err = &SourceError{Keyword: keyword, Kind: KindRetrieval, Err: err}
		metrics.IncSourceError(keyword, string(KindRetrieval))
		return res
	}

	adapter, err := d.factory.Create(keyword)
	if err != nil {
		res.Err = &SourceError{Keyword: keyword, Kind: KindConfig, Err: err}
		metrics.IncSourceError(keyword, string(KindConfig))
		logger.Error("source not available", logger.Fields{"source": keyword}, err)
		return res
	}

	start := d.now()
	records, err := scrape(ctx, adapter)
	res.Duration = d.now().Sub(start)
	metrics.ObserveScrape(keyword, res.Duration)

	if err != nil {
		res.Err = &SourceError{Keyword: keyword, Kind: KindRetrieval, Err: err}
		metrics.IncSourceError(keyword, string(KindRetrieval))
		logger.Error("source skipped", logger.Fields{"source": keyword}, err)
		return res
	}

	if d.filter != nil {
		kept := d.filter.Apply(records)
		if dropped := len(records) - len(kept); dropped > 0 {
			logger.Debug("records filtered out", logger.Fields{
				"source":  keyword,
				"dropped": dropped,
				"filter":  d.filter.String(),
			})
		}
		records = kept
	}

	res.Records = records
	metrics.AddRecords(keyword, len(records))
	logger.Info("source scraped", logger.Fields{
		"source":      keyword,
		"records":     len(records),
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res
}

// save hands records to s. A panic fails every record of the source instead of
// ending the run.
func save(ctx context.Context, s sink.Sink, records []*event.Record) (outcomes []sink.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: sink %s: %v", ErrPanic, s.Name(), r)
			logger.Error("sink panicked", logger.Fields{"sink": s.Name()}, err)
			outcomes = make([]sink.Outcome, len(records))
			for i, rec := range records {
				outcomes[i] = sink.Outcome{RecordID: rec.ID, Err: err}
			}
		}
	}()
	return s.Save(ctx, records)
}

// scrape runs the adapter and turns a panic into an error.
func scrape(ctx context.Context, adapter scraper.Adapter) (records []*event.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return adapter.Scrape(ctx)
}
