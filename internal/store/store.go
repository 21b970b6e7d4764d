package store

import (
	"context"
	"errors"

	"github.com/nulzo/cost-report/internal/store/model"
)

var (
	ErrNotFound = errors.New("provider not found")
	ErrConflict = errors.New("provider name already exists")
)

// Repository is the main contract for the data layer.
type Repository interface {
	Providers() ProviderRepository
	Runs() RunRepository

	Close() error
}

// ProviderRepository manages the provider catalog. Methods taking a ref accept
// either the provider id or its name; the id wins when both could match.
type ProviderRepository interface {
	// List returns every provider in creation order.
	List(ctx context.Context) ([]model.Provider, error)
	Get(ctx context.Context, ref string) (*model.Provider, error)
	// Create assigns the id and timestamps. Fails with ErrConflict when the name is taken.
	Create(ctx context.Context, p *model.Provider) error
	Update(ctx context.Context, ref string, patch model.ProviderPatch) (*model.Provider, error)
	Delete(ctx context.Context, ref string) error
	// Duplicate copies the provider under a fresh id and a " Copy" suffixed name.
	Duplicate(ctx context.Context, id string) (*model.Provider, error)
	// MergePricing upserts entries into the provider's price memo.
	MergePricing(ctx context.Context, id string, entries model.Pricing) error
	// ClearPricing drops every price memo and reports how many providers changed.
	ClearPricing(ctx context.Context) (int64, error)
}

type RunRepository interface {
	Log(ctx context.Context, run *model.ReportRun) error
	// GetDailyStats returns aggregated runs grouped by day, newest first.
	GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error)
}
