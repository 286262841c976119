package imdraw

import (
	"log/slog"

	"github.com/gogpu/imdraw/backend"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r := imdraw.New(
//	    imdraw.WithConfig(cfg),
//	    imdraw.WithLogger(slog.Default()),
//	)
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	cfg       Config
	logger    *slog.Logger
	factories [backend.APICount]backend.Factory
}

func defaultOptions() options {
	return options{cfg: DefaultConfig()}
}

// WithConfig sets the initial viewport, field of view and clip planes.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets a logger for this Renderer only. Backends keep logging
// through the package logger set with SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFactory overrides the registered factory for one API slot.
// Embedders use it to supply a preconfigured backend, tests to inject fakes.
func WithFactory(api backend.API, f backend.Factory) Option {
	return func(o *options) {
		if api.Valid() && api != backend.APINull {
			o.factories[api] = f
		}
	}
}
