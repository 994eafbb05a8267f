package storezip

import (
	"log/slog"

	"github.com/meigma/storezip/internal/zipfmt"
)

// DefaultMaxEntries is the limit used when no MaxEntries option is set.
// It is the largest count the end record can hold.
const DefaultMaxEntries = zipfmt.MaxEntries

// config holds configuration for archive creation.
type config struct {
	logger      *slog.Logger
	strictPaths bool
	maxEntries  int
}

// Option configures archive creation.
type Option func(*config)

// WithLogger sets the logger used for debug output. A nil logger
// disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithStrictPaths makes Build fail instead of dropping entries.
//
// With strict paths, an entry whose path is empty after normalization or
// contains a ".." that climbs above the archive root fails with
// ErrInvalidPath, and two entries that normalize to the same name fail
// with ErrDuplicatePath.
func WithStrictPaths() Option {
	return func(cfg *config) {
		cfg.strictPaths = true
	}
}

// WithMaxEntries limits the number of entries written to the archive.
// Values outside 1..DefaultMaxEntries use DefaultMaxEntries.
func WithMaxEntries(n int) Option {
	return func(cfg *config) {
		cfg.maxEntries = n
	}
}

func newConfig(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxEntries <= 0 || cfg.maxEntries > DefaultMaxEntries {
		cfg.maxEntries = DefaultMaxEntries
	}
	return cfg
}

// log returns the logger, falling back to a discard logger if nil.
func (cfg *config) log() *slog.Logger {
	if cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.logger
}
