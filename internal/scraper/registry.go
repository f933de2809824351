package scraper

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnsupportedKeyword is returned by Create for keywords with no registered source.
var ErrUnsupportedKeyword = errors.New("Not supported keyword") //nolint:staticcheck // message is part of the CLI output

// Registry maps source keywords to their configuration and builds adapters.
// It is filled once at startup and only read afterwards.
type Registry struct {
	fetcher Fetcher
	now     func() time.Time
	order   []string
	sources map[string]SourceConfig
}

// Option configures a Registry
type Option func(*Registry)

// WithClock replaces time.Now for adapters built by the registry.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates a registry holding the built-in sources
func NewRegistry(fetcher Fetcher, opts ...Option) *Registry {
	r := NewEmptyRegistry(fetcher, opts...)
	for _, cfg := range BuiltinSources() {
		// built-ins are valid by construction
		_ = r.Register(cfg)
	}
	return r
}

// NewEmptyRegistry creates a registry without any sources
func NewEmptyRegistry(fetcher Fetcher, opts ...Option) *Registry {
	r := &Registry{
		fetcher: fetcher,
		now:     time.Now,
		sources: make(map[string]SourceConfig),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds cfg, or replaces the source with the same keyword in place.
func (r *Registry) Register(cfg SourceConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("registering source: %w", err)
	}
	if _, exists := r.sources[cfg.Keyword]; !exists {
		r.order = append(r.order, cfg.Keyword)
	}
	r.sources[cfg.Keyword] = cfg.clone()
	return nil
}

// Lookup returns a copy of the configuration registered for keyword.
func (r *Registry) Lookup(keyword string) (SourceConfig, bool) {
	cfg, ok := r.sources[keyword]
	if !ok {
		return SourceConfig{}, false
	}
	return cfg.clone(), true
}

// Keywords returns the registered keywords in registration order.
func (r *Registry) Keywords() []string {
	return append([]string(nil), r.order...)
}

// Create builds the adapter for keyword
func (r *Registry) Create(keyword string) (Adapter, error) {
	cfg, ok := r.sources[keyword]
	if !ok {
		known := r.Keywords()
		sort.Strings(known)
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnsupportedKeyword, keyword, known)
	}
	return &sourceAdapter{
		cfg:     cfg.clone(),
		fetcher: r.fetcher,
		now:     r.now,
	}, nil
}
