package report

import (
	"strings"
	"testing"

	"github.com/nulzo/cost-report/internal/store/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoProviderResponse = `Here is your cost report.

## Provider: Google Cloud Run

| Input | Value | Original Price (USD) | Estimated Cost (USD) | Cost Calculation | Pricing Source URL |
|---|---|---|---|---|---|
| vCPU_hours | 100 | $0.54/hour | 394.20 | $0.54/hour × 730 hours | https://cloud.google.com/run/pricing |
| **Total** | | | $394.20 | | |

## Provider: Vercel

| Input | Value | Original Price (USD) | Estimated Cost (USD) | Cost Calculation | Pricing Source URL |
|---|---|---|---|---|---|
| Bandwidth_GB | 250 | $0.10/GB/month | 25.00 | $0.10/GB/month × 250 GB | https://vercel.com/pricing |
| Seats | 2 | Unknown | Unknown | - | https://vercel.com/pricing |
| **Total** | | | $25.00 | | |

## Notes

- Google Cloud Run: https://cloud.google.com/run/pricing
- Vercel: https://vercel.com/pricing
`

func TestHasTables(t *testing.T) {
	assert.True(t, HasTables(twoProviderResponse))
	assert.False(t, HasTables("I could not find pricing for these providers."))
	assert.False(t, HasTables("| a | b |"))
}

func TestSplitPositional(t *testing.T) {
	segments, trailer := SplitPositional(twoProviderResponse, 2)

	require.Len(t, segments, 2)
	assert.True(t, strings.HasPrefix(segments[0], "## Provider: Google Cloud Run"))
	assert.True(t, strings.HasPrefix(segments[1], "## Provider: Vercel"))
	assert.NotContains(t, segments[0], "Here is your cost report")
	assert.NotContains(t, segments[1], "## Notes")
	assert.True(t, strings.HasPrefix(trailer, "## Notes"))
}

func TestSplitPositional_FewerSections(t *testing.T) {
	segments, _ := SplitPositional(twoProviderResponse, 3)
	assert.Len(t, segments, 2)

	segments, _ = SplitPositional(twoProviderResponse, 1)
	assert.Len(t, segments, 1)

	segments, trailer := SplitPositional("", 1)
	assert.Empty(t, segments)
	assert.Empty(t, trailer)
}

func TestSplitPositional_NoHeading(t *testing.T) {
	reply := "| Input | Value | Original Price (USD) | Estimated Cost (USD) | Cost Calculation | Pricing Source URL |\n" +
		"|---|---|---|---|---|---|\n" +
		"| vCPU_hours | 100 | $0.54/hour | 394.20 | $0.54/hour × 730 hours | https://cloud.google.com/run/pricing |\n" +
		"| **Total** | | | $394.20 | | |\n\n" +
		"## Notes\n\n- Google Cloud Run: https://cloud.google.com/run/pricing\n"

	segments, trailer := SplitPositional(reply, 2)

	require.Len(t, segments, 1)
	assert.True(t, strings.HasPrefix(segments[0], "| Input | Value |"))
	assert.NotContains(t, segments[0], "## Notes")
	assert.True(t, strings.HasPrefix(trailer, "## Notes"))
}

func TestExtractPricing_InputNamedTotal(t *testing.T) {
	fragment := `## Provider: Google Cloud Storage

| Input | Value | Original Price (USD) | Estimated Cost (USD) | Cost Calculation | Pricing Source URL |
|---|---|---|---|---|---|
| Total_Storage_GB | 50 | $0.10/GB/month | 5.00 | $0.10/GB/month × 50 GB | https://cloud.google.com/storage/pricing |
| **Total** | | | $5.00 | | |
`
	assert.Equal(t, model.Pricing{
		"Total_Storage_GB:50": {Price: "$0.10/GB/month", URL: "https://cloud.google.com/storage/pricing"},
	}, ExtractPricing(fragment))
}

func TestExtractPricing(t *testing.T) {
	segments, _ := SplitPositional(twoProviderResponse, 2)

	assert.Equal(t, model.Pricing{
		"vCPU_hours:100": {Price: "$0.54/hour", URL: "https://cloud.google.com/run/pricing"},
	}, ExtractPricing(segments[0]))

	// the Unknown row is not memoized
	assert.Equal(t, model.Pricing{
		"Bandwidth_GB:250": {Price: "$0.10/GB/month", URL: "https://vercel.com/pricing"},
	}, ExtractPricing(segments[1]))
}

func TestFirstURL(t *testing.T) {
	assert.Equal(t, "https://vercel.com/pricing", FirstURL("see https://vercel.com/pricing."))
	assert.Empty(t, FirstURL("no links here"))
}

func TestFallbackFragment(t *testing.T) {
	s := Selection{
		Provider: model.Provider{Name: "MongoDB Atlas", Inputs: model.InputFields{{Name: "Storage_GB", DefaultValue: "10"}}},
		Inputs:   map[string]string{},
	}

	fragment := FallbackFragment(s)

	assert.Equal(t, "https://www.mongodbatlas.com/pricing", DefaultPricingURL("MongoDB Atlas"))
	assert.Contains(t, fragment, "## Provider: MongoDB Atlas")
	assert.Contains(t, fragment, "| Storage_GB | 10 | Unknown | Unknown | - | https://www.mongodbatlas.com/pricing |")
	assert.Empty(t, ExtractPricing(fragment))
}
