package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// InputField is one metered dimension of a provider (e.g. storage GB).
type InputField struct {
	Name         string `json:"name" bson:"name"`
	Label        string `json:"label,omitempty" bson:"label,omitempty"`
	Type         string `json:"type" bson:"type"` // number, text (dropdown is stored but treated as text)
	DefaultValue string `json:"defaultValue" bson:"defaultValue"`
	Description  string `json:"description" bson:"description"`
}

// InputFields is stored as a JSON column in SQLite.
type InputFields []InputField

func (f InputFields) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *InputFields) Scan(src interface{}) error {
	return scanJSON(src, f)
}

// PriceEntry is a price the report model stated for one input value, with the
// page it was taken from.
type PriceEntry struct {
	Price string `json:"price" bson:"price"`
	URL   string `json:"url" bson:"url"`
}

// Pricing is the per-provider price memo keyed by "<inputName>:<inputValue>".
type Pricing map[string]PriceEntry

// PricingKey builds the memo key. The value is used literally, so "250" and
// "250.0" are distinct entries.
func PricingKey(inputName, inputValue string) string {
	return inputName + ":" + inputValue
}

func (p Pricing) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Pricing) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	return scanJSON(src, p)
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), dest)
	case []byte:
		return json.Unmarshal(v, dest)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

// Provider is a billable external service with an ordered schema of usage inputs.
type Provider struct {
	ID        string      `db:"id" json:"id" bson:"_id"`
	Name      string      `db:"name" json:"name" bson:"name"`
	Inputs    InputFields `db:"inputs_json" json:"inputs" bson:"inputs"`
	Pricing   Pricing     `db:"pricing_json" json:"pricing,omitempty" bson:"pricing,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

// ProviderPatch carries the fields of a partial update. Nil means unchanged.
type ProviderPatch struct {
	Name    *string
	Inputs  InputFields
	Pricing Pricing
}

// ReportRun records how one report request was resolved.
type ReportRun struct {
	ID                string    `db:"id" json:"id" bson:"_id"`
	ProviderCount     int       `db:"provider_count" json:"provider_count" bson:"provider_count"`
	CacheHits         int       `db:"cache_hits" json:"cache_hits" bson:"cache_hits"`
	PricingHits       int       `db:"pricing_hits" json:"pricing_hits" bson:"pricing_hits"`
	Misses            int       `db:"misses" json:"misses" bson:"misses"`
	Fallback          bool      `db:"fallback" json:"fallback" bson:"fallback"`
	UpstreamLatencyMS int64     `db:"upstream_latency_ms" json:"upstream_latency_ms" bson:"upstream_latency_ms"`
	StatusCode        int       `db:"status_code" json:"status_code" bson:"status_code"`
	CreatedAt         time.Time `db:"created_at" json:"created_at" bson:"created_at"`
}

// DailyStats represents aggregated report activity for a specific day.
type DailyStats struct {
	Date           string  `db:"date" json:"date" bson:"_id"`
	Reports        int     `db:"reports" json:"reports" bson:"reports"`
	Providers      int     `db:"providers" json:"providers" bson:"providers"`
	CacheHits      int     `db:"cache_hits" json:"cache_hits" bson:"cache_hits"`
	PricingHits    int     `db:"pricing_hits" json:"pricing_hits" bson:"pricing_hits"`
	Misses         int     `db:"misses" json:"misses" bson:"misses"`
	Fallbacks      int     `db:"fallbacks" json:"fallbacks" bson:"fallbacks"`
	AverageLatency float64 `db:"avg_latency" json:"avg_latency" bson:"avg_latency"`
}
