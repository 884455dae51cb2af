package colstore

import (
	"log/slog"

	"github.com/hupe1980/colstore/internal/bgtask"
	"github.com/hupe1980/colstore/internal/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	resourceConfig   resource.Config
	bgtaskConfig     bgtask.Config
	autoBackground   bool
}

// Option configures Open/Create behavior. Options exist so the
// constructor surface doesn't explode into per-feature variants — every
// knob is opt-in over sensible defaults.
type Option func(*options)

// WithLogger configures structured logging for table operations. Pass
// nil to disable logging (the default).
func WithLogger(logger *Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLogLevel is a convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) { o.logger = NewTextLogger(level) }
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection (the default).
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) { o.metricsCollector = mc }
}

// WithResourceConfig configures the shared admission/throttling
// controller (internal/resource) background workers acquire before
// doing I/O, so foreground writers are not starved during a merge.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) { o.resourceConfig = cfg }
}

// WithBackgroundTasks configures and starts the table's background
// flush and compress/merge queues (internal/bgtask) immediately on
// Open/Create. Without this option a table only merges segments when the
// caller explicitly calls MergeReadonlySegments or AsyncPurgeDelete.
func WithBackgroundTasks(cfg bgtask.Config) Option {
	return func(o *options) {
		o.autoBackground = true
		o.bgtaskConfig = cfg
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
