package api

// SelectedProvider pairs a provider snapshot with the values the user typed in.
type SelectedProvider struct {
	Provider SelectedProviderRef `json:"provider" binding:"required"`
	Inputs   map[string]string   `json:"inputs"`
}

// SelectedProviderRef is the provider snapshot sent by the pricing tool. Only the
// name is required; id and inputs are used when present.
type SelectedProviderRef struct {
	ID     string       `json:"id"`
	Name   string       `json:"name" binding:"required"`
	Inputs []InputField `json:"inputs"`
}

type ReportRequest struct {
	Providers []SelectedProvider `json:"providers" binding:"required,min=1,dive"`
}

type ReportResponse struct {
	Report string `json:"report"`
}

type SelectionRequest struct {
	Provider SelectedProviderRef `json:"provider" binding:"required"`
	Inputs   map[string]string   `json:"inputs" binding:"required"`
}

type SelectionResponse struct {
	Provider string            `json:"provider"`
	Inputs   map[string]string `json:"inputs"`
}

type DailyUsage struct {
	Date           string  `json:"date"`
	Reports        int     `json:"reports"`
	Providers      int     `json:"providers"`
	CacheHits      int     `json:"cache_hits"`
	PricingHits    int     `json:"pricing_hits"`
	UpstreamMisses int     `json:"upstream_misses"`
	Fallbacks      int     `json:"fallbacks"`
	AverageLatency float64 `json:"avg_upstream_latency_ms"`
}
