// Package config loads run settings and source definitions.
//
// Run settings come from an optional YAML config file, CHESS_EVENTS_* environment
// variables and command-line flags, merged by viper with flags taking precedence.
// Source definitions live in a separate sources file that can override built-in
// sources field by field or add new ones.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pfrederiksen/chess-events/internal/logger"
	"github.com/pfrederiksen/chess-events/internal/scraper"
	"github.com/pfrederiksen/chess-events/internal/sink"
)

// EnvPrefix is prepended to environment variable names, e.g. CHESS_EVENTS_SINK_DSN.
const EnvPrefix = "CHESS_EVENTS"

// Keys shared by viper, flags and the config file.
const (
	KeySources      = "sources"
	KeySourcesFile  = "sources_file"
	KeySinkKind     = "sink.kind"
	KeySinkDSN      = "sink.dsn"
	KeySinkDataDir  = "sink.data_dir"
	KeySinkICSPath  = "sink.ics_path"
	KeySinkCalendar = "sink.calendar_name"
	KeyLogLevel     = "log.level"
	KeyLogFormat    = "log.format"
	KeyHTTPTimeout  = "http.timeout"
	KeyHTTPAgent    = "http.user_agent"
	KeyMetricsFile  = "metrics_file"
)

// Configuration validation errors.
var (
	ErrNoSources        = errors.New("at least one source is required")
	ErrInvalidSinkKind  = errors.New("sink.kind must be one of: none, dryrun, json, ics, postgres")
	ErrInvalidLogLevel  = errors.New("log.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat = errors.New("log.format must be 'json' or 'console'")
	ErrInvalidTimeout   = errors.New("http.timeout must be positive")
)

// Config is the complete run configuration.
type Config struct {
	Sources     []string   `mapstructure:"sources"`
	SourcesFile string     `mapstructure:"sources_file"`
	Sink        SinkConfig `mapstructure:"sink"`
	Log         LogConfig  `mapstructure:"log"`
	HTTP        HTTPConfig `mapstructure:"http"`
	MetricsFile string     `mapstructure:"metrics_file"`
}

// SinkConfig selects where records are saved.
type SinkConfig struct {
	Kind         string `mapstructure:"kind"`
	DSN          string `mapstructure:"dsn"`
	DataDir      string `mapstructure:"data_dir"`
	ICSPath      string `mapstructure:"ics_path"`
	CalendarName string `mapstructure:"calendar_name"`
}

// LogConfig defines logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HTTPConfig tunes the page fetcher.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// NewViper returns a viper instance with defaults and environment binding in place.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeySources, []string{
		scraper.KeywordClub8x8,
		scraper.KeywordKitasenjyu,
		scraper.KeywordNCS,
	})
	v.SetDefault(KeySourcesFile, "")
	v.SetDefault(KeySinkKind, sink.KindNone)
	v.SetDefault(KeySinkDSN, "")
	v.SetDefault(KeySinkDataDir, sink.DefaultDataDir)
	v.SetDefault(KeySinkICSPath, "")
	v.SetDefault(KeySinkCalendar, "Chess meetings")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyHTTPTimeout, scraper.Timeout)
	v.SetDefault(KeyHTTPAgent, scraper.UserAgent)
	v.SetDefault(KeyMetricsFile, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file into v and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.Sources = splitSources(cfg.Sources)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// splitSources accepts both lists and comma separated strings, e.g. from the environment.
func splitSources(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, keyword := range strings.Split(item, ",") {
			if keyword = strings.TrimSpace(keyword); keyword != "" {
				out = append(out, keyword)
			}
		}
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}

	switch strings.ToLower(c.Sink.Kind) {
	case "", sink.KindNone, sink.KindDryRun, sink.KindJSON, sink.KindICS, sink.KindPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSinkKind, c.Sink.Kind)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return ErrInvalidLogLevel
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return ErrInvalidLogFormat
	}

	if c.HTTP.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// SinkOptions converts the sink section for sink.New.
func (c *Config) SinkOptions() sink.Config {
	return sink.Config{
		Kind:         c.Sink.Kind,
		DSN:          c.Sink.DSN,
		DataDir:      c.Sink.DataDir,
		ICSPath:      c.Sink.ICSPath,
		CalendarName: c.Sink.CalendarName,
	}
}

// String returns a string representation of the config without credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Sources: %v, Sink: %s, Log: %s/%s}",
		c.Sources, c.Sink.Kind, c.Log.Level, c.Log.Format)
}
