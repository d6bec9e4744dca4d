package audit

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type options struct {
	logger  zerolog.Logger
	workers int
	rate    int
}

// Option configures the checkers and the Auditor.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{logger: log.Logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used for progress and warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWorkers bounds the number of concurrent range requests. Values below 1
// mean one worker per CPU.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

// WithRateLimit caps range requests per second, 0 is unlimited. Queuing a
// request waits on the limiter without watching the context, so a canceled
// check can still wait up to one interval before it returns.
func WithRateLimit(perSecond int) Option {
	return func(o *options) {
		o.rate = perSecond
	}
}
