package analytics

import (
	"context"

	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/model"
)

const defaultDays = 7

type Service interface {
	GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error)
}

type service struct {
	repo store.RunRepository
}

func NewService(repo store.RunRepository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error) {
	if days <= 0 {
		days = defaultDays
	}
	return s.repo.GetDailyStats(ctx, days)
}
