package analytics

import (
	"context"
	"time"

	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/model"
	"go.uber.org/zap"
)

// Ingestor handles the asynchronous persistence of report runs.
type Ingestor interface {
	Record(run *model.ReportRun)
	Start(ctx context.Context)
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.RunRepository
	runChan   chan *model.ReportRun
	done      chan struct{}
	batchSize int
	flushTime time.Duration
}

func NewIngestor(logger *zap.Logger, repo store.RunRepository) Ingestor {
	return &ingestor{
		logger:    logger,
		repo:      repo,
		runChan:   make(chan *model.ReportRun, 1000),
		done:      make(chan struct{}),
		batchSize: 20,
		flushTime: 5 * time.Second,
	}
}

// Record never blocks the report request; a full buffer drops the run.
func (i *ingestor) Record(run *model.ReportRun) {
	select {
	case i.runChan <- run:
	default:
		i.logger.Warn("Analytics buffer full, dropping report run", zap.Int("providers", run.ProviderCount))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

// Stop closes the buffer and waits for the final flush.
func (i *ingestor) Stop() {
	close(i.runChan)
	<-i.done
}

func (i *ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*model.ReportRun, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		for _, run := range batch {
			if err := i.repo.Log(context.Background(), run); err != nil {
				i.logger.Error("Failed to persist report run", zap.String("id", run.ID), zap.Error(err))
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case run, ok := <-i.runChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, run)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}
