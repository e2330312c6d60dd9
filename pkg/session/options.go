package session

import (
	"context"
	"os"
	"time"

	"phreeqcore/internal/blob"
	"phreeqcore/internal/persistence"
)

// EnvDatabase names the environment variable holding the default database path.
const EnvDatabase = "PHREEQ_DATABASE"

// Logger is the structured logging surface used by Session. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder observes every command submission.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type config struct {
	database string
	logger   Logger
	metrics  MetricsRecorder
	blobs    blob.Store
	meta     persistence.Store
}

// Option customises a Session.
type Option func(*config)

// WithDatabase sets the thermodynamic database file, overriding PHREEQ_DATABASE.
func WithDatabase(path string) Option {
	return func(c *config) { c.database = path }
}

// WithLogger installs a logger. A nil logger keeps the silent default.
func WithLogger(l Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetricsRecorder installs a recorder observing every engine run.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithBlobStore sets where DumpSolutions writes and Restore reads dumps.
func WithBlobStore(s blob.Store) Option {
	return func(c *config) { c.blobs = s }
}

// WithMetadataStore sets where counters and extraneous metadata are kept
// alongside each dump.
func WithMetadataStore(s persistence.Store) Option {
	return func(c *config) { c.meta = s }
}

func newConfig(opts []Option) config {
	cfg := config{
		database: os.Getenv(EnvDatabase),
		logger:   noopLogger{},
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
