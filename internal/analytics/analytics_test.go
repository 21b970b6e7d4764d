package analytics

import (
	"context"
	"sync"
	"testing"

	"github.com/nulzo/cost-report/internal/store/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryRuns struct {
	mu       sync.Mutex
	runs     []*model.ReportRun
	lastDays int
}

func (m *memoryRuns) Log(_ context.Context, run *model.ReportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryRuns) GetDailyStats(_ context.Context, days int) ([]model.DailyStats, error) {
	m.lastDays = days
	return []model.DailyStats{{Date: "2026-10-15", Reports: len(m.runs)}}, nil
}

func TestIngestor_FlushesOnStop(t *testing.T) {
	repo := &memoryRuns{}
	ing := NewIngestor(zap.NewNop(), repo)
	ing.Start(context.Background())

	ing.Record(&model.ReportRun{ProviderCount: 2, CacheHits: 1})
	ing.Record(&model.ReportRun{ProviderCount: 1, Misses: 1})
	ing.Stop()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.runs, 2)
	assert.Equal(t, 2, repo.runs[0].ProviderCount)
}

func TestService_DefaultsToAWeek(t *testing.T) {
	repo := &memoryRuns{}
	svc := NewService(repo)

	stats, err := svc.GetUsageOverview(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, stats, 1)
	assert.Equal(t, 7, repo.lastDays)

	_, err = svc.GetUsageOverview(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 30, repo.lastDays)
}
