package concord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tbsu/internal/config"
	"tbsu/internal/frame"
	"tbsu/internal/infrastructure"
)

// Resolver computes group concordances. It keeps no state between calls and
// is safe for concurrent use.
type Resolver struct {
	maxIterations int
	verbose       bool
	logger        *slog.Logger
	metrics       *infrastructure.BusinessMetrics
	tracer        trace.Tracer
	progress      func(Progress)
}

// Option configures a Resolver
type Option func(*Resolver)

// WithMetrics records every resolution in metrics
func WithMetrics(metrics *infrastructure.BusinessMetrics) Option {
	return func(r *Resolver) { r.metrics = metrics }
}

// WithTracer runs every resolution in a span from tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Resolver) { r.tracer = tracer }
}

// WithProgress calls fn after the initial settle check and after every pass
func WithProgress(fn func(Progress)) Option {
	return func(r *Resolver) { r.progress = fn }
}

// NewResolver creates a resolver from the concord configuration
func NewResolver(cfg config.ConcordConfig, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		maxIterations: cfg.MaxIterations,
		verbose:       cfg.Verbose,
		logger:        infrastructure.WithComponent(logger, "concord"),
		tracer:        otel.Tracer("tbsu/concord"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve assigns a group id to the rows of f. Validation happens before any
// propagation and no partial result is returned on error.
func (r *Resolver) Resolve(ctx context.Context, f *frame.Frame, req Request) (*frame.Frame, Stats, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "concord.Resolve")
	defer span.End()

	out, stats, err := r.resolve(ctx, f, req)
	stats.Duration = time.Since(start)

	r.metrics.RecordConcord(ctx, stats.InputRows, stats.Iterations, stats.Duration, err)
	span.SetAttributes(
		attribute.Int("concord.input_rows", stats.InputRows),
		attribute.Int("concord.unique_links", stats.UniqueLinks),
		attribute.Int("concord.iterations", stats.Iterations),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.DebugContext(ctx, "Concord resolution failed",
			slog.String("error", err.Error()),
			slog.Int("iterations", stats.Iterations))
		return nil, stats, err
	}

	r.logger.DebugContext(ctx, "Concord resolution complete",
		slog.Int("input_rows", stats.InputRows),
		slog.Int("unique_links", stats.UniqueLinks),
		slog.Int("groups", stats.Groups),
		slog.Int("iterations", stats.Iterations),
		slog.Duration("duration", stats.Duration))

	return out, stats, nil
}

func (r *Resolver) resolve(ctx context.Context, f *frame.Frame, req Request) (*frame.Frame, Stats, error) {
	p, err := newPlan(f, req)
	if err != nil {
		return nil, Stats{}, err
	}
	if err := p.checkNulls(f); err != nil {
		return nil, Stats{}, err
	}

	idx := buildIndex(f, p.colsA, p.colsB)
	stats := Stats{InputRows: f.Len(), UniqueLinks: len(idx.links)}

	labels, iterations, err := r.propagate(ctx, idx.links, len(idx.rep0), len(idx.rep1))
	stats.Iterations = iterations
	if err != nil {
		return nil, stats, err
	}
	stats.Groups = countGroups(labels)

	var out *frame.Frame
	if req.Expand {
		out, err = p.expand(f, idx, labels, req.KeepIDs)
	} else {
		out, err = p.collapse(f, idx, labels, req.KeepIDs)
	}
	if err != nil {
		return nil, stats, fmt.Errorf("failed to build output: %w", err)
	}
	return out, stats, nil
}

func countGroups(labels []int) int {
	seen := make(map[int]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}
