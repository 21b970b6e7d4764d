package report

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/nulzo/cost-report/internal/llm"
	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/cache"
	"github.com/nulzo/cost-report/internal/store/model"
	"github.com/nulzo/cost-report/pkg/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// MissingKeyMessage is the fixed response when the model credential is absent.
	MissingKeyMessage = "Server configuration error: API key missing"
	// EmptySelectionMessage rejects a report request without providers.
	EmptySelectionMessage = "At least one provider is required"
)

// Recorder receives one run record per report request.
type Recorder interface {
	Record(run *model.ReportRun)
}

// ModelOptions are forwarded to the LLM on every batched call.
type ModelOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

type Stats struct {
	CacheHits       int
	PricingHits     int
	Misses          int
	Fallback        bool
	UpstreamLatency time.Duration
}

type Result struct {
	Markdown string
	HTML     string
	Stats    Stats
}

type Generator struct {
	providers store.ProviderRepository
	cache     cache.ReportCache
	client    llm.Client
	renderer  *Renderer
	split     Splitter
	recorder  Recorder
	opts      ModelOptions
	logger    *zap.Logger
	tracer    trace.Tracer
}

type Option func(*Generator)

func WithSplitter(s Splitter) Option { return func(g *Generator) { g.split = s } }

func WithRecorder(r Recorder) Option { return func(g *Generator) { g.recorder = r } }

func WithModelOptions(o ModelOptions) Option { return func(g *Generator) { g.opts = o } }

func NewGenerator(providers store.ProviderRepository, c cache.ReportCache, client llm.Client, logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		providers: providers,
		cache:     c,
		client:    client,
		renderer:  NewRenderer(),
		split:     SplitPositional,
		logger:    logger,
		tracer:    otel.Tracer("github.com/nulzo/cost-report/internal/report"),
		opts:      ModelOptions{MaxTokens: 2000},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate resolves every selection (cache, then price memo, then one batched
// model call for the rest), assembles the report and renders it to HTML.
func (g *Generator) Generate(ctx context.Context, selections []Selection) (*Result, error) {
	if len(selections) == 0 {
		return nil, api.BadRequestError(EmptySelectionMessage,
			api.WithType("/problems/validation"),
			api.WithExtension("errors", map[string]string{"providers": EmptySelectionMessage}),
		)
	}

	ctx, span := g.tracer.Start(ctx, "report.generate", trace.WithAttributes(
		attribute.Int("report.providers", len(selections)),
	))
	defer span.End()

	res, err := g.generate(ctx, selections)

	run := &model.ReportRun{ProviderCount: len(selections), StatusCode: http.StatusOK}
	if res != nil {
		run.CacheHits = res.Stats.CacheHits
		run.PricingHits = res.Stats.PricingHits
		run.Misses = res.Stats.Misses
		run.Fallback = res.Stats.Fallback
		run.UpstreamLatencyMS = res.Stats.UpstreamLatency.Milliseconds()
	}
	if err != nil {
		run.StatusCode = http.StatusInternalServerError
		var problem *api.Problem
		if errors.As(err, &problem) {
			run.StatusCode = problem.Status
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if g.recorder != nil {
		g.recorder.Record(run)
	}

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (g *Generator) generate(ctx context.Context, selections []Selection) (*Result, error) {
	res := &Result{}
	fragments := make([]string, len(selections))
	records := make([]*model.Provider, len(selections))
	var misses []int

	for i, s := range selections {
		key := CacheKey(s)
		fragment, ok, err := g.cache.Get(ctx, key)
		if err != nil {
			g.logger.Warn("Report cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			fragments[i] = fragment
			res.Stats.CacheHits++
			continue
		}

		records[i] = g.lookup(ctx, s)
		if records[i] != nil {
			pairs := s.Pairs()
			if Covered(records[i].Pricing, pairs) {
				fragments[i] = PricedFragment(s.Provider.Name, records[i].Pricing, pairs)
				g.store(ctx, key, fragments[i])
				res.Stats.PricingHits++
				continue
			}
		}

		misses = append(misses, i)
	}
	res.Stats.Misses = len(misses)

	var trailer string
	if len(misses) > 0 {
		var err error
		trailer, err = g.resolveMisses(ctx, selections, misses, records, fragments, &res.Stats)
		if err != nil {
			return res, err
		}
	}

	res.Markdown = Assemble(selections, fragments, trailer)

	html, err := g.renderer.Render(res.Markdown)
	if err != nil {
		return res, api.InternalError("Failed to render report", err)
	}
	res.HTML = html

	g.logger.Info("Report generated",
		zap.Int("providers", len(selections)),
		zap.Int("cache_hits", res.Stats.CacheHits),
		zap.Int("pricing_hits", res.Stats.PricingHits),
		zap.Int("misses", res.Stats.Misses),
		zap.Bool("fallback", res.Stats.Fallback),
	)

	return res, nil
}

// resolveMisses makes the single batched model call and fills the fragments of
// every missed selection, falling back to an Unknown table where needed.
func (g *Generator) resolveMisses(ctx context.Context, selections []Selection, misses []int, records []*model.Provider, fragments []string, stats *Stats) (string, error) {
	batch := make([]Selection, 0, len(misses))
	for _, i := range misses {
		batch = append(batch, selections[i])
	}

	text, err := g.complete(ctx, batch, stats)
	if err != nil {
		return "", err
	}

	if !HasTables(text) {
		g.logger.Warn("Model response has no markdown table, using fallback tables", zap.Int("providers", len(batch)))
		stats.Fallback = true
		for _, i := range misses {
			fragments[i] = FallbackFragment(selections[i])
		}
		return "", nil
	}

	segments, trailer := g.split(text, len(misses))
	for j, i := range misses {
		if j >= len(segments) {
			g.logger.Warn("Model response is missing a provider section",
				zap.String("provider", selections[i].Provider.Name))
			stats.Fallback = true
			fragments[i] = FallbackFragment(selections[i])
			continue
		}

		fragments[i] = segments[j]
		g.store(ctx, CacheKey(selections[i]), segments[j])
		g.persist(ctx, selections[i], records[i], segments[j])
	}

	return trailer, nil
}

func (g *Generator) complete(ctx context.Context, batch []Selection, stats *Stats) (string, error) {
	ctx, span := g.tracer.Start(ctx, "report.llm", trace.WithAttributes(
		attribute.String("llm.client", g.client.Name()),
		attribute.Int("llm.providers", len(batch)),
	))
	defer span.End()

	start := time.Now()
	text, err := g.client.Complete(ctx, &llm.Request{
		Model:       g.opts.Model,
		System:      SystemPrompt,
		Prompt:      BuildPrompt(batch),
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	stats.UpstreamLatency = time.Since(start)

	if err == nil {
		return text, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, llm.ErrMissingAPIKey) {
		return "", api.ConfigurationError(MissingKeyMessage, err)
	}
	var problem *api.Problem
	if errors.As(err, &problem) {
		return "", problem
	}
	return "", api.UpstreamError(http.StatusBadGateway, llm.GenericFailure, api.WithLog(err))
}

// lookup finds the stored record for a snapshot, by id first and then by name.
func (g *Generator) lookup(ctx context.Context, s Selection) *model.Provider {
	for _, ref := range []string{s.Provider.ID, s.Provider.Name} {
		if ref == "" {
			continue
		}
		p, err := g.providers.Get(ctx, ref)
		if err == nil {
			return p
		}
		if !errors.Is(err, store.ErrNotFound) {
			g.logger.Warn("Provider lookup failed", zap.String("ref", ref), zap.Error(err))
			return nil
		}
	}
	return nil
}

func (g *Generator) store(ctx context.Context, key, fragment string) {
	if err := g.cache.Set(ctx, key, fragment); err != nil {
		g.logger.Warn("Report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (g *Generator) persist(ctx context.Context, s Selection, record *model.Provider, fragment string) {
	entries := ExtractPricing(fragment)
	if len(entries) == 0 {
		return
	}
	if record == nil {
		g.logger.Warn("Provider not in catalog, price memo not saved", zap.String("provider", s.Provider.Name))
		return
	}
	if err := g.providers.MergePricing(ctx, record.ID, entries); err != nil {
		g.logger.Warn("Failed to save price memo", zap.String("provider", record.Name), zap.Error(err))
	}
}
