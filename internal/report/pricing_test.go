package report

import (
	"testing"

	"github.com/nulzo/cost-report/internal/store/model"
	"github.com/stretchr/testify/assert"
)

func TestEstimateLine(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		value    string
		wantCost string
		wantCalc string
	}{
		{"hourly", "$0.54/hour", "100", "394.20", "$0.54/hour × 730 hours"},
		{"per GB", "$0.10/GB/month", "250", "25.00", "$0.10/GB/month × 250 GB"},
		{"per GB non-numeric value", "$0.10/GB/month", "lots", "0.10", "$0.10/GB/month × 1 GB"},
		{"included", "Included", "500", "Included", "-"},
		{"flat", "$20/month", "1", "Included", "-"},
		{"garbage rate", "$abc/hour", "1", "Included", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, calc := EstimateLine(tt.price, tt.value)
			assert.Equal(t, tt.wantCost, cost)
			assert.Equal(t, tt.wantCalc, calc)
		})
	}
}

func TestCovered(t *testing.T) {
	memo := model.Pricing{
		"vCPU_hours:100": {Price: "$0.54/hour"},
		"Egress_GB:10":   {Price: "$0.12/GB/month"},
	}

	assert.True(t, Covered(memo, []Pair{{"vCPU_hours", "100"}, {"Egress_GB", "10"}}))
	// keys are literal, a different value is a different entry
	assert.False(t, Covered(memo, []Pair{{"vCPU_hours", "101"}}))
	assert.False(t, Covered(nil, []Pair{{"vCPU_hours", "100"}}))
}

func TestPricedFragment(t *testing.T) {
	memo := model.Pricing{
		"vCPU_hours:100": {Price: "$0.54/hour", URL: "https://cloud.google.com/run/pricing"},
		"Storage_GB:250": {Price: "$0.10/GB/month", URL: "https://cloud.google.com/storage/pricing"},
		"Requests:1000":  {Price: "Included", URL: "https://cloud.google.com/run/pricing"},
	}
	pairs := []Pair{{"vCPU_hours", "100"}, {"Storage_GB", "250"}, {"Requests", "1000"}}

	fragment := PricedFragment("Google Cloud Run", memo, pairs)

	assert.Contains(t, fragment, "## Provider: Google Cloud Run\n")
	assert.Contains(t, fragment, "| vCPU_hours | 100 | $0.54/hour | 394.20 | $0.54/hour × 730 hours | https://cloud.google.com/run/pricing |")
	assert.Contains(t, fragment, "| Storage_GB | 250 | $0.10/GB/month | 25.00 | $0.10/GB/month × 250 GB |")
	assert.Contains(t, fragment, "| Requests | 1000 | Included | Included | - |")
	assert.Contains(t, fragment, "| **Total** | | | $419.20 | | |")

	_, cost, ok := totalRow(fragment)
	assert.True(t, ok)
	assert.Equal(t, "$419.20", cost)
}

func TestSelectionPairs(t *testing.T) {
	s := Selection{
		Provider: model.Provider{Inputs: model.InputFields{
			{Name: "b", DefaultValue: "1"},
			{Name: "a", DefaultValue: "2"},
		}},
		Inputs: map[string]string{"a": "9", "z": "3", "c": "4"},
	}

	assert.Equal(t, []Pair{{"b", "1"}, {"a", "9"}, {"c", "4"}, {"z", "3"}}, s.Pairs())
}

func TestCacheKey(t *testing.T) {
	a := Selection{Provider: model.Provider{Name: "Vercel"}, Inputs: map[string]string{"b": "2", "a": "1"}}
	b := Selection{Provider: model.Provider{Name: "Vercel"}, Inputs: map[string]string{"a": "1", "b": "2"}}

	assert.Equal(t, `Vercel{"a":"1","b":"2"}`, CacheKey(a))
	assert.Equal(t, CacheKey(a), CacheKey(b))
	assert.Equal(t, `Vercel{}`, CacheKey(Selection{Provider: model.Provider{Name: "Vercel"}}))
}
