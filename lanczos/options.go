// SPDX-License-Identifier: MIT
// Package lanczos: functional options for the solver's collaborators.
//
// Options carry ambient concerns only (logging, metrics, tracing); numeric
// behaviour lives in Config. Constructors panic on nil arguments: passing nil
// is a programmer error, and the zero behaviour is already the default.

package lanczos

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans emitted by this package.
const tracerName = "github.com/katalvlaran/laso/lanczos"

const (
	panicNilLogger  = "lanczos: WithLogger: logger must not be nil"
	panicNilMetrics = "lanczos: WithMetrics: metrics must not be nil"
	panicNilTracer  = "lanczos: WithTracer: tracer must not be nil"
)

// Option configures a Solver.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// defaultOptions: discard logs, no metrics, the global tracer provider.
func defaultOptions() options {
	return options{
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(tracerName),
	}
}

// WithLogger routes solver logs to l. Restarts and acceptances log at Debug,
// the end of a solve at Info.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicNilLogger)
	}

	return func(o *options) { o.logger = l }
}

// WithMetrics records solver counters into m (see NewMetrics).
func WithMetrics(m *Metrics) Option {
	if m == nil {
		panic(panicNilMetrics)
	}

	return func(o *options) { o.metrics = m }
}

// WithTracer starts solve spans with t instead of the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	if t == nil {
		panic(panicNilTracer)
	}

	return func(o *options) { o.tracer = t }
}
