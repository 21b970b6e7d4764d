package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nulzo/cost-report/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen_SQLite(t *testing.T) {
	repo, err := Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		URI:    filepath.Join(t.TempDir(), "catalog.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()

	list, err := repo.Providers().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"}, zap.NewNop())
	assert.Error(t, err)
}
