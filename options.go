package chainkv

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Options configures Open. The zero value is not useful; start from
// DefaultOptions or pass Option functions to Open.
type Options struct {
	Backend Backend

	// Geometry. PageSize 0 means the OS page size clamped to
	// [MinPageSize, MaxPageSize].
	MaxSize    int64
	GrowthStep int64
	PageSize   int

	MaxReaders int
	// Readahead enables OS read-ahead on the data file. Random B-tree
	// access is usually faster without it.
	Readahead bool

	Logger     *zap.Logger
	Registerer prometheus.Registerer
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the options Open starts from.
func DefaultOptions() Options {
	return Options{
		Backend:    BackendMDBX,
		MaxSize:    DefaultMaxSize,
		GrowthStep: DefaultGrowthStep,
		MaxReaders: DefaultMaxReaders,
		Logger:     zap.NewNop(),
	}
}

// WithBackend selects the storage engine.
func WithBackend(b Backend) Option {
	return func(o *Options) { o.Backend = b }
}

// WithGeometry overrides the data file bounds. Zero values keep the
// defaults.
func WithGeometry(maxSize, growthStep int64, pageSize int) Option {
	return func(o *Options) {
		if maxSize > 0 {
			o.MaxSize = maxSize
		}
		if growthStep > 0 {
			o.GrowthStep = growthStep
		}
		if pageSize > 0 {
			o.PageSize = pageSize
		}
	}
}

// WithMaxReaders sets the number of reader slots.
func WithMaxReaders(n int) Option {
	return func(o *Options) { o.MaxReaders = n }
}

// WithReadahead turns OS read-ahead back on.
func WithReadahead() Option {
	return func(o *Options) { o.Readahead = true }
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics registers the environment's collectors with r.
func WithMetrics(r prometheus.Registerer) Option {
	return func(o *Options) { o.Registerer = r }
}

func (o *Options) pageSize() int {
	ps := o.PageSize
	if ps <= 0 {
		ps = sysPageSize
	}
	if ps < MinPageSize {
		ps = MinPageSize
	}
	if ps > MaxPageSize {
		ps = MaxPageSize
	}
	return ps
}
