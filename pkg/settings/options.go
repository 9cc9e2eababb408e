package settings

import (
	"go.uber.org/zap"
)

// Option configures a construction call.
type Option func(*options)

type options struct {
	envPrefix       string
	caseInsensitive bool
	requiredIfNoDef bool
	environ         map[string]string
	logger          *zap.Logger
}

// WithEnvPrefix sets the prefix prepended to field names when matching
// environment variables that were not found under their exact name.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithCaseInsensitive enables case-insensitive matching of prefixed names.
func WithCaseInsensitive(enabled bool) Option {
	return func(o *options) {
		o.caseInsensitive = enabled
	}
}

// WithRequiredIfNoDef marks every struct field without envDefault as required.
func WithRequiredIfNoDef(enabled bool) Option {
	return func(o *options) {
		o.requiredIfNoDef = enabled
	}
}

// WithEnviron replaces the process environment with the given snapshot,
// primarily for tests and for callers that merge .env files without touching
// the process environment.
func WithEnviron(environ map[string]string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// WithLogger sets the logger used to report where each field value came from.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
