package runtime

import (
	"log/slog"
	"time"

	"github.com/vango-dev/morph/pkg/morph"
)

// DefaultQueueSize is the capacity of the Do queue.
const DefaultQueueSize = 256

type options struct {
	logger     *slog.Logger
	emitter    Emitter
	afterTick  []func(TickInfo)
	batchDelay time.Duration
	queueSize  int
	morphOpts  []morph.Option
}

func defaultOptions() options {
	return options{
		logger:    slog.Default().With("component", "runtime"),
		queueSize: DefaultQueueSize,
	}
}

// Option configures a Runtime.
type Option func(*options)

// WithLogger sets the logger for the runtime and its reconciler.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEmitter routes Emit calls to fn. By default events are dispatched on
// the root element when the document supports it.
func WithEmitter(fn Emitter) Option {
	return func(o *options) {
		o.emitter = fn
	}
}

// WithAfterTick registers a hook called on the loop after every tick.
func WithAfterTick(fn func(TickInfo)) Option {
	return func(o *options) {
		o.afterTick = append(o.afterTick, fn)
	}
}

// WithBatchDelay sets how long Run waits for more messages before ticking.
// Zero ticks as soon as a message arrives.
func WithBatchDelay(d time.Duration) Option {
	return func(o *options) {
		o.batchDelay = d
	}
}

// WithQueueSize sets the capacity of the Do queue.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithMorphOptions passes options through to the reconciler.
func WithMorphOptions(opts ...morph.Option) Option {
	return func(o *options) {
		o.morphOpts = append(o.morphOpts, opts...)
	}
}
