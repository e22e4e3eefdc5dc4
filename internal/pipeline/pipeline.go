package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/extract"
	"github.com/phrazzld/scry-studygen/internal/generation"
	"github.com/phrazzld/scry-studygen/internal/prompt"
	"github.com/phrazzld/scry-studygen/internal/records"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/phrazzld/scry-studygen/internal/pipeline"

// Cache stores raw responses by prompt. Implementations report a miss as
// ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, prompt string) (raw string, ok bool, err error)
	Set(ctx context.Context, prompt, raw string) error
	Delete(ctx context.Context, prompt string) error
}

// Pipeline turns a RequestContext into an ordered batch of question records.
type Pipeline struct {
	builder   *prompt.Builder
	client    generation.Client
	extractor *extract.Extractor
	cache     Cache
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache enables the completion cache.
func WithCache(c Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithTracerProvider sets the provider used for stage spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) {
		if tp != nil {
			p.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a Pipeline.
func New(
	builder *prompt.Builder,
	client generation.Client,
	extractor *extract.Extractor,
	logger *slog.Logger,
	opts ...Option,
) (*Pipeline, error) {
	if builder == nil || client == nil || extractor == nil {
		return nil, fmt.Errorf("%w: builder, client and extractor are required", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	p := &Pipeline{
		builder:   builder,
		client:    client,
		extractor: extractor,
		tracer:    noop.NewTracerProvider().Tracer(tracerName),
		logger:    logger.With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Validate normalizes and checks rc without running anything.
func (p *Pipeline) Validate(rc domain.RequestContext) (domain.RequestContext, error) {
	return p.builder.Validate(rc)
}

// Run executes every stage for rc. Any stage failure aborts the run and no
// partial result is returned.
func (p *Pipeline) Run(ctx context.Context, rc domain.RequestContext) ([]domain.QuestionRecord, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	items, err := p.run(ctx, rc)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("records.count", len(items)))
	return items, nil
}

func (p *Pipeline) run(ctx context.Context, rc domain.RequestContext) ([]domain.QuestionRecord, error) {
	promptText, err := p.build(ctx, rc)
	if err != nil {
		return nil, err
	}

	if items, ok := p.fromCache(ctx, promptText); ok {
		return items, nil
	}

	raw, err := p.submit(ctx, promptText)
	if err != nil {
		return nil, err
	}

	items, err := p.parse(ctx, raw)
	if err != nil {
		p.logger.WarnContext(ctx, "generative response rejected",
			"error_kind", domain.Kind(err),
			"error", err,
			"response_length", len(raw))
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, promptText, raw); err != nil {
			p.logger.WarnContext(ctx, "failed to cache completion", "error", err)
		}
	}
	p.logger.InfoContext(ctx, "generated question batch", "records", len(items))
	return items, nil
}

func (p *Pipeline) build(ctx context.Context, rc domain.RequestContext) (string, error) {
	_, span := p.tracer.Start(ctx, "prompt.build")
	defer span.End()

	out, err := p.builder.Build(rc)
	if err != nil {
		fail(span, err)
		return "", err
	}
	span.SetAttributes(attribute.Int("prompt.length", len(out)))
	return out, nil
}

// fromCache returns a cached batch when one exists and still validates.
// A cached payload that no longer validates is evicted and ignored.
func (p *Pipeline) fromCache(ctx context.Context, promptText string) ([]domain.QuestionRecord, bool) {
	if p.cache == nil {
		return nil, false
	}

	ctx, span := p.tracer.Start(ctx, "cache.lookup")
	defer span.End()

	raw, ok, err := p.cache.Get(ctx, promptText)
	if err != nil {
		span.RecordError(err)
		p.logger.WarnContext(ctx, "completion cache unavailable", "error", err)
		return nil, false
	}
	span.SetAttributes(attribute.Bool("cache.hit", ok))
	if !ok {
		return nil, false
	}

	items, err := p.parse(ctx, raw)
	if err != nil {
		span.SetAttributes(attribute.Bool("cache.stale", true))
		p.logger.WarnContext(ctx, "ignoring cached completion that no longer validates", "error", err)
		if err := p.cache.Delete(ctx, promptText); err != nil {
			p.logger.WarnContext(ctx, "failed to evict cached completion", "error", err)
		}
		return nil, false
	}
	p.logger.DebugContext(ctx, "served question batch from cache", "records", len(items))
	return items, true
}

func (p *Pipeline) submit(ctx context.Context, promptText string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "generation.submit")
	defer span.End()

	raw, err := p.client.Submit(ctx, promptText)
	if err != nil {
		fail(span, err)
		return "", err
	}
	span.SetAttributes(attribute.Int("response.length", len(raw)))
	return raw, nil
}

func (p *Pipeline) parse(ctx context.Context, raw string) ([]domain.QuestionRecord, error) {
	_, span := p.tracer.Start(ctx, "extract")
	payload, err := p.extractor.Extract(raw)
	if err != nil {
		fail(span, err)
		span.End()
		return nil, err
	}
	span.End()

	_, span = p.tracer.Start(ctx, "records.validate")
	defer span.End()
	items, err := records.Validate(payload)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("records.count", len(items)))
	return items, nil
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, domain.Kind(err))
}
