package orb

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/orb/pkg/id"
)

// Option configures a Session or Engine.
type Option func(*options)

type options struct {
	loc   *time.Location
	log   *zap.Logger
	newID func(time.Time) string
}

func defaultOptions() options {
	return options{
		loc:   DefaultLocation(),
		log:   zap.NewNop(),
		newID: id.NewAt,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithLocation sets the zone used for dates and times of day.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithIDFunc overrides trade ID generation. The argument is the exit time.
func WithIDFunc(fn func(time.Time) string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}
