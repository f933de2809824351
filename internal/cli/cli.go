package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/chess-events/internal/config"
	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/filter"
	"github.com/pfrederiksen/chess-events/internal/logger"
	"github.com/pfrederiksen/chess-events/internal/metrics"
	"github.com/pfrederiksen/chess-events/internal/pipeline"
	"github.com/pfrederiksen/chess-events/internal/scraper"
	"github.com/pfrederiksen/chess-events/internal/sink"
)

const (
	ExitSuccess       = 0
	ExitError         = 1
	ExitSourcesFailed = 2
)

// Version is reported by --version.
var Version = "dev"

// errSourcesFailed makes Run exit with ExitSourcesFailed after a complete report.
var errSourcesFailed = errors.New("some sources failed")

// app holds what the commands share. Tests replace the fetcher and clock.
type app struct {
	v       *viper.Viper
	stdout  io.Writer
	stderr  io.Writer
	fetcher scraper.Fetcher
	now     func() time.Time

	configFile string
	format     string
	sortOrder  string
	verbose    bool

	from, to    string
	period      string
	names       []string
	venues      []string
	organizers  []string
	weekendOnly bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      config.NewViper(),
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp(os.Stdout, os.Stderr))
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chess-events",
		Short: "Collect chess club meetings from Japanese club and federation sites",
		Long: `A CLI tool that scrapes chess club meeting announcements from several sites,
normalizes their Japanese dates, validates them and saves them to a configurable sink.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runScrape,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	// Define flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Config file (YAML)")
	pf.StringSlice("sources", nil, "Source keywords to run, in order")
	pf.String("sources-file", "", "YAML file overriding or adding sources")
	pf.String("sink", "", "Sink: none, dryrun, json, ics or postgres")
	pf.String("dsn", "", "PostgreSQL connection string (prefer CHESS_EVENTS_SINK_DSN)")
	pf.String("data-dir", "", "Data directory for JSON snapshots")
	pf.String("ics-path", "", "Output file of the ics sink")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("log-format", "", "Log format: json or console")
	pf.Duration("timeout", 0, "HTTP timeout per page")
	pf.String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	pf.StringVar(&a.format, "format", "text", "Output format: text or json")
	pf.StringVar(&a.sortOrder, "sort", "date", "Record order: date, source or name")
	pf.BoolVar(&a.verbose, "verbose", false, "Show record IDs and URLs")

	// Record filters
	pf.StringVar(&a.from, "from", "", "Only meetings ending on or after this date (YYYY-MM-DD)")
	pf.StringVar(&a.to, "to", "", "Only meetings starting on or before this date (YYYY-MM-DD)")
	pf.StringVar(&a.period, "period", "", `Only meetings in this period, e.g. "2月" or "2/1-2/15"`)
	pf.StringSliceVar(&a.names, "name", nil, "Only meetings whose name contains one of these")
	pf.StringSliceVar(&a.venues, "venue", nil, "Only meetings whose venue contains one of these")
	pf.StringSliceVar(&a.organizers, "organizer", nil, "Only meetings by one of these organizers")
	pf.BoolVar(&a.weekendOnly, "weekends", false, "Only meetings touching a Saturday or Sunday")

	bindings := map[string]string{
		config.KeySources:     "sources",
		config.KeySourcesFile: "sources-file",
		config.KeySinkKind:    "sink",
		config.KeySinkDSN:     "dsn",
		config.KeySinkDataDir: "data-dir",
		config.KeySinkICSPath: "ics-path",
		config.KeyLogLevel:    "log-level",
		config.KeyLogFormat:   "log-format",
		config.KeyHTTPTimeout: "timeout",
		config.KeyMetricsFile: "metrics-file",
	}
	for key, flag := range bindings {
		// flags only override when set
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Scrape the configured sources and save their records (default)",
			Args:  cobra.NoArgs,
			RunE:  a.runScrape,
		},
		newSourcesCmd(a),
		newParseDateCmd(a),
	)

	return cmd
}

// setup loads the configuration and installs the logger.
func (a *app) setup() (*config.Config, error) {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(cfg.Log.Format, "console") {
		logger.SetDefault(logger.NewConsole(level, a.stderr))
	} else {
		logger.SetDefault(logger.New(level, a.stderr))
	}
	return cfg, nil
}

// registry builds the source registry including the sources file.
func (a *app) registry(cfg *config.Config) (*scraper.Registry, error) {
	fetcher := a.fetcher
	if fetcher == nil {
		fetcher = scraper.NewHTTPFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent)
	}

	reg := scraper.NewRegistry(fetcher, scraper.WithClock(a.now))
	if cfg.SourcesFile != "" {
		specs, err := config.LoadSources(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		if err := config.ApplySources(reg, specs); err != nil {
			return nil, fmt.Errorf("applying sources file: %w", err)
		}
	}
	return reg, nil
}

// recordFilter builds the filter from the filter flags.
func (a *app) recordFilter() (*filter.Filter, error) {
	f := filter.New()

	var err error
	if f.From, err = filter.ParseBound(a.from); err != nil {
		return nil, fmt.Errorf("--from: %w", err)
	}
	if f.To, err = filter.ParseBound(a.to); err != nil {
		return nil, fmt.Errorf("--to: %w", err)
	}
	if a.period != "" {
		if a.from != "" || a.to != "" {
			return nil, errors.New("--period cannot be combined with --from or --to")
		}
		ref := event.DateOf(a.now().In(event.JST))
		if f.From, f.To, err = filter.ParsePeriod(a.period, ref); err != nil {
			return nil, fmt.Errorf("--period: %w", err)
		}
	}
	if !f.From.IsSentinel() && !f.To.IsSentinel() && f.To.Before(f.From) {
		return nil, fmt.Errorf("--to %s is before --from %s", f.To, f.From)
	}

	f.Names = append(f.Names, a.names...)
	f.Venues = append(f.Venues, a.venues...)
	f.Organizers = append(f.Organizers, a.organizers...)
	f.WeekendsOnly = a.weekendOnly
	return f, nil
}

// runScrape is the main command logic
func (a *app) runScrape(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(a.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", a.format)
	}
	order, err := parseSortOrder(a.sortOrder)
	if err != nil {
		return err
	}
	recFilter, err := a.recordFilter()
	if err != nil {
		return err
	}

	cfg, err := a.setup()
	if err != nil {
		return err
	}
	reg, err := a.registry(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// a broken sink must not hide the report
	sinkCfg := cfg.SinkOptions()
	sinkCfg.Output = a.stdout
	if format == FormatJSON {
		// keep stdout a single JSON document
		sinkCfg.Output = a.stderr
	}
	s, sinkErr := sink.New(ctx, sinkCfg)
	if sinkErr != nil {
		logger.Error("sink unavailable, records will not be saved", logger.Fields{
			"sink": cfg.Sink.Kind,
		}, sinkErr)
	}

	opts := []pipeline.Option{pipeline.WithClock(a.now)}
	if !recFilter.IsEmpty() {
		opts = append(opts, pipeline.WithFilter(recFilter))
	}
	if s != nil {
		defer s.Close()
		opts = append(opts, pipeline.WithSink(s))
	}
	if format == FormatText {
		opts = append(opts, pipeline.WithReporter(func(res *pipeline.SourceResult) {
			writeSourceText(a.stdout, newSourceOutput(res, order), a.verbose)
		}))
	}

	logger.Debug("starting run", logger.Fields{"config": cfg.String()})
	summary := pipeline.NewDriver(reg, opts...).Run(ctx, cfg.Sources)
	summary.SinkErr = sinkErr

	result := newOutputResult(summary, order)
	if format == FormatJSON {
		if err := writeJSON(a.stdout, result); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	} else {
		writeTotals(a.stdout, result)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("writing metrics failed", logger.Fields{"path": cfg.MetricsFile}, err)
		}
	}

	if summary.Failed() {
		return errSourcesFailed
	}
	return nil
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	return execute(newApp(stdout, stderr), args)
}

func execute(a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errSourcesFailed):
		return ExitSourcesFailed
	default:
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
