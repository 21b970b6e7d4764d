package report_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nulzo/cost-report/internal/llm"
	"github.com/nulzo/cost-report/internal/report"
	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/cache"
	"github.com/nulzo/cost-report/internal/store/model"
	"github.com/nulzo/cost-report/internal/store/sqlite"
	"github.com/nulzo/cost-report/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockClient implements llm.Client for testing
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) Complete(ctx context.Context, req *llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type recorder struct {
	runs []*model.ReportRun
}

func (r *recorder) Record(run *model.ReportRun) { r.runs = append(r.runs, run) }

const cloudRunSection = `## Provider: Google Cloud Run

| Input | Value | Original Price (USD) | Estimated Cost (USD) | Cost Calculation | Pricing Source URL |
|---|---|---|---|---|---|
| vCPU_hours | 100 | $0.54/hour | 394.20 | $0.54/hour × 730 hours | https://cloud.google.com/run/pricing |
| **Total** | | | $394.20 | | |
`

const vercelSection = `## Provider: Vercel

| Input | Value | Original Price (USD) | Estimated Cost (USD) | Cost Calculation | Pricing Source URL |
|---|---|---|---|---|---|
| Bandwidth_GB | 250 | $0.10/GB/month | 25.00 | $0.10/GB/month × 250 GB | https://vercel.com/pricing |
| **Total** | | | $25.00 | | |
`

type fixture struct {
	repo     store.Repository
	cloudRun model.Provider
	vercel   model.Provider
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repo, err := sqlite.NewSQLiteStorage(filepath.Join(t.TempDir(), "catalog.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	cloudRun := model.Provider{Name: "Google Cloud Run", Inputs: model.InputFields{
		{Name: "vCPU_hours", Type: "number", DefaultValue: "0"},
	}}
	vercel := model.Provider{Name: "Vercel", Inputs: model.InputFields{
		{Name: "Bandwidth_GB", Type: "number", DefaultValue: "100"},
	}}
	require.NoError(t, repo.Providers().Create(ctx, &cloudRun))
	require.NoError(t, repo.Providers().Create(ctx, &vercel))

	return &fixture{repo: repo, cloudRun: cloudRun, vercel: vercel}
}

func (f *fixture) selectCloudRun() report.Selection {
	return report.Selection{Provider: f.cloudRun, Inputs: map[string]string{"vCPU_hours": "100"}}
}

func (f *fixture) selectVercel() report.Selection {
	return report.Selection{Provider: f.vercel, Inputs: map[string]string{"Bandwidth_GB": "250"}}
}

func TestGenerate_EmptySelection(t *testing.T) {
	client := new(MockClient)
	g := report.NewGenerator(nil, cache.NewMemoryCache(0), client, zap.NewNop())

	_, err := g.Generate(context.Background(), nil)

	var problem *api.Problem
	require.True(t, errors.As(err, &problem))
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, "/problems/validation", problem.Type)
	assert.Equal(t, report.EmptySelectionMessage, problem.Detail)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestGenerate_CacheIdempotence(t *testing.T) {
	f := setup(t)
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything).Return("Report:\n\n"+cloudRunSection, nil).Once()

	g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop())
	sel := []report.Selection{f.selectCloudRun()}

	first, err := g.Generate(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Stats.Misses)

	second, err := g.Generate(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Stats.CacheHits)
	assert.Zero(t, second.Stats.Misses)

	assert.Equal(t, first.Markdown, second.Markdown)
	assert.Equal(t, first.HTML, second.HTML)
	client.AssertNumberOfCalls(t, "Complete", 1)
}

func TestGenerate_PromptAndRequest(t *testing.T) {
	f := setup(t)
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.MatchedBy(func(req *llm.Request) bool {
		return req.System == report.SystemPrompt &&
			req.Temperature == 0 &&
			req.MaxTokens == 1500 &&
			strings.Contains(req.Prompt, `Google Cloud Run: Inputs={"vCPU_hours":"100"}`) &&
			strings.Contains(req.Prompt, `Vercel: Inputs={"Bandwidth_GB":"250"}`)
	})).Return(cloudRunSection+"\n"+vercelSection, nil).Once()

	g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop(),
		report.WithModelOptions(report.ModelOptions{MaxTokens: 1500}))

	_, err := g.Generate(context.Background(), []report.Selection{f.selectCloudRun(), f.selectVercel()})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestGenerate_PersistsAndReusesPricing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(cloudRunSection, nil).Once()
	g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop())

	_, err := g.Generate(ctx, []report.Selection{f.selectCloudRun()})
	require.NoError(t, err)

	stored, err := f.repo.Providers().Get(ctx, f.cloudRun.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriceEntry{Price: "$0.54/hour", URL: "https://cloud.google.com/run/pricing"},
		stored.Pricing["vCPU_hours:100"])

	// a fresh process: empty cache, pricing memo in the catalog
	offline := new(MockClient)
	rec := &recorder{}
	g2 := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), offline, zap.NewNop(), report.WithRecorder(rec))

	res, err := g2.Generate(ctx, []report.Selection{f.selectCloudRun()})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.PricingHits)
	assert.Contains(t, res.Markdown, "| vCPU_hours | 100 | $0.54/hour | 394.20 | $0.54/hour × 730 hours |")
	offline.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, 1, rec.runs[0].PricingHits)
	assert.Equal(t, http.StatusOK, rec.runs[0].StatusCode)
}

func TestGenerate_PricingLookupByName(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Providers().MergePricing(ctx, f.vercel.ID, model.Pricing{
		"Bandwidth_GB:250": {Price: "$0.10/GB/month", URL: "https://vercel.com/pricing"},
	}))

	client := new(MockClient)
	g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop())

	sel := f.selectVercel()
	sel.Provider.ID = "stale-id"
	res, err := g.Generate(ctx, []report.Selection{sel})
	require.NoError(t, err)

	assert.Contains(t, res.Markdown, "| Bandwidth_GB | 250 | $0.10/GB/month | 25.00 | $0.10/GB/month × 250 GB |")
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestGenerate_MalformedResponseFallsBack(t *testing.T) {
	f := setup(t)
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything).Return("Sorry, I cannot price these services.", nil).Twice()

	rec := &recorder{}
	g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop(), report.WithRecorder(rec))
	sel := []report.Selection{f.selectCloudRun(), f.selectVercel()}

	res, err := g.Generate(context.Background(), sel)
	require.NoError(t, err)

	assert.True(t, res.Stats.Fallback)
	assert.Contains(t, res.Markdown, "| vCPU_hours | 100 | Unknown | Unknown | - | https://www.googlecloudrun.com/pricing |")
	assert.Contains(t, res.Markdown, "| Bandwidth_GB | 250 | Unknown | Unknown | - | https://www.vercel.com/pricing |")
	assert.Contains(t, res.Markdown, "- Vercel: https://www.vercel.com/pricing")

	// fallback tables are not cached
	_, err = g.Generate(context.Background(), sel)
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Complete", 2)

	stored, err := f.repo.Providers().Get(context.Background(), f.vercel.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Pricing)
	assert.True(t, rec.runs[0].Fallback)
}

func TestGenerate_ReplyWithoutHeadingGoesToFirstProvider(t *testing.T) {
	f := setup(t)
	client := new(MockClient)
	reply := strings.TrimPrefix(cloudRunSection, "## Provider: Google Cloud Run\n\n")
	client.On("Complete", mock.Anything, mock.Anything).Return(reply, nil).Once()

	g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop())

	res, err := g.Generate(context.Background(), []report.Selection{f.selectCloudRun()})
	require.NoError(t, err)

	assert.False(t, res.Stats.Fallback)
	assert.Contains(t, res.Markdown, "| vCPU_hours | 100 | $0.54/hour | 394.20 |")
	assert.NotContains(t, res.Markdown, "Unknown")

	stored, err := f.repo.Providers().Get(context.Background(), f.cloudRun.ID)
	require.NoError(t, err)
	assert.Equal(t, "$0.54/hour", stored.Pricing["vCPU_hours:100"].Price)
}

func TestGenerate_MissingSectionFallsBackForThatProvider(t *testing.T) {
	f := setup(t)
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(cloudRunSection, nil).Once()

	g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop())

	res, err := g.Generate(context.Background(), []report.Selection{f.selectCloudRun(), f.selectVercel()})
	require.NoError(t, err)

	assert.Contains(t, res.Markdown, "| vCPU_hours | 100 | $0.54/hour | 394.20 |")
	assert.Contains(t, res.Markdown, "| Bandwidth_GB | 250 | Unknown | Unknown | - | https://www.vercel.com/pricing |")
	assert.True(t, res.Stats.Fallback)
}

func TestGenerate_SynthesizedGrandTotal(t *testing.T) {
	f := setup(t)
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(cloudRunSection+"\n"+vercelSection, nil).Once()

	g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop())

	res, err := g.Generate(context.Background(), []report.Selection{f.selectCloudRun(), f.selectVercel()})
	require.NoError(t, err)

	assert.Contains(t, res.Markdown, "## Totals")
	assert.Contains(t, res.Markdown, "| **Grand Total** | | **$419.20** |")
	assert.Contains(t, res.Markdown, "- Google Cloud Run: https://cloud.google.com/run/pricing")
	assert.Contains(t, res.HTML, "<table>")
	assert.Contains(t, res.HTML, "<h2>Totals</h2>")
}

func TestGenerate_KeepsModelTotals(t *testing.T) {
	f := setup(t)
	trailer := "\n## Totals\n\n| Provider | Original Price (USD) | Estimated Cost (USD) |\n|---|---|---|\n| **Grand Total** | | $1.00 |\n"
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(cloudRunSection+"\n"+vercelSection+trailer, nil).Once()

	c := cache.NewMemoryCache(0)
	g := report.NewGenerator(f.repo.Providers(), c, client, zap.NewNop())

	res, err := g.Generate(context.Background(), []report.Selection{f.selectCloudRun(), f.selectVercel()})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(res.Markdown, "## Totals"))
	assert.Contains(t, res.Markdown, "$1.00")

	// the report-level section never lands in a provider's cached fragment
	cached, ok, err := c.Get(context.Background(), report.CacheKey(f.selectVercel()))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, cached, "## Totals")
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	f := setup(t)
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything).Return("", llm.ErrMissingAPIKey).Once()

	rec := &recorder{}
	g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop(), report.WithRecorder(rec))

	_, err := g.Generate(context.Background(), []report.Selection{f.selectCloudRun()})

	var problem *api.Problem
	require.True(t, errors.As(err, &problem))
	assert.Equal(t, http.StatusInternalServerError, problem.Status)
	assert.Equal(t, report.MissingKeyMessage, problem.Detail)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, http.StatusInternalServerError, rec.runs[0].StatusCode)
}

func TestGenerate_UpstreamErrors(t *testing.T) {
	f := setup(t)

	t.Run("problem passes through", func(t *testing.T) {
		client := new(MockClient)
		client.On("Complete", mock.Anything, mock.Anything).
			Return("", api.UpstreamError(http.StatusTooManyRequests, "Rate limit reached")).Once()
		g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop())

		_, err := g.Generate(context.Background(), []report.Selection{f.selectCloudRun()})

		var problem *api.Problem
		require.True(t, errors.As(err, &problem))
		assert.Equal(t, http.StatusTooManyRequests, problem.Status)
		assert.Equal(t, "Rate limit reached", problem.Detail)
	})

	t.Run("anything else is a generic 502", func(t *testing.T) {
		client := new(MockClient)
		client.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("connection reset")).Once()
		g := report.NewGenerator(f.repo.Providers(), cache.NewMemoryCache(0), client, zap.NewNop())

		_, err := g.Generate(context.Background(), []report.Selection{f.selectCloudRun()})

		var problem *api.Problem
		require.True(t, errors.As(err, &problem))
		assert.Equal(t, http.StatusBadGateway, problem.Status)
		assert.Equal(t, llm.GenericFailure, problem.Detail)
	})
}

func TestGenerate_NoUpstreamCallWhenEverythingIsKnown(t *testing.T) {
	f := setup(t)
	c := cache.NewMemoryCache(0)
	require.NoError(t, c.Set(context.Background(), report.CacheKey(f.selectCloudRun()), cloudRunSection))

	client := new(MockClient)
	g := report.NewGenerator(f.repo.Providers(), c, client, zap.NewNop())

	res, err := g.Generate(context.Background(), []report.Selection{f.selectCloudRun()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.CacheHits)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}
