// Package backend picks the catalog implementation named in the configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/nulzo/cost-report/internal/config"
	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/mongo"
	"github.com/nulzo/cost-report/internal/store/sqlite"
	"go.uber.org/zap"
)

func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (store.Repository, error) {
	switch cfg.Driver {
	case "mongo":
		return mongo.NewMongoStorage(ctx, cfg.URI, cfg.Name, log)
	case "sqlite", "":
		return sqlite.NewSQLiteStorage(cfg.URI, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
