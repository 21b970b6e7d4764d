package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

// WithTx runs fn against a repository bound to a single transaction.
func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo *SqliteRepository) error) error {
	if _, inTx := r.executor.(*sqlx.Tx); inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Providers() store.ProviderRepository {
	return &providerRepo{db: r.executor, root: r}
}

func (r *SqliteRepository) Runs() store.RunRepository {
	return &runRepo{db: r.executor}
}

type providerRepo struct {
	db   DB
	root *SqliteRepository
}

// refQuery resolves a ref to one row, preferring an id match over a name match.
const refQuery = `SELECT * FROM providers WHERE id = ? OR name = ? ORDER BY (id = ?) DESC LIMIT 1`

func (r *providerRepo) List(ctx context.Context) ([]model.Provider, error) {
	providers := []model.Provider{}
	err := r.db.SelectContext(ctx, &providers, `SELECT * FROM providers ORDER BY rowid`)
	return providers, err
}

func (r *providerRepo) Get(ctx context.Context, ref string) (*model.Provider, error) {
	var p model.Provider
	if err := r.db.GetContext(ctx, &p, refQuery, ref, ref, ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *providerRepo) Create(ctx context.Context, p *model.Provider) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Inputs == nil {
		p.Inputs = model.InputFields{}
	}

	query := `
	INSERT INTO providers (id, name, inputs_json, pricing_json, created_at, updated_at)
	VALUES (:id, :name, :inputs_json, :pricing_json, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *providerRepo) Update(ctx context.Context, ref string, patch model.ProviderPatch) (*model.Provider, error) {
	var updated *model.Provider
	err := r.root.WithTx(ctx, func(repo *SqliteRepository) error {
		tx := &providerRepo{db: repo.executor, root: repo}
		p, err := tx.Get(ctx, ref)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Inputs != nil {
			p.Inputs = patch.Inputs
		}
		if patch.Pricing != nil {
			p.Pricing = patch.Pricing
		}
		p.UpdatedAt = time.Now().UTC()

		query := `
		UPDATE providers
		SET name = :name, inputs_json = :inputs_json, pricing_json = :pricing_json, updated_at = :updated_at
		WHERE id = :id`
		if _, err := tx.db.NamedExecContext(ctx, query, p); err != nil {
			return mapConstraint(err)
		}
		updated = p
		return nil
	})
	return updated, err
}

func (r *providerRepo) Delete(ctx context.Context, ref string) error {
	query := `DELETE FROM providers WHERE id = (` + refSubquery + `)`
	res, err := r.db.ExecContext(ctx, query, ref, ref, ref)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

const refSubquery = `SELECT id FROM providers WHERE id = ? OR name = ? ORDER BY (id = ?) DESC LIMIT 1`

func (r *providerRepo) Duplicate(ctx context.Context, id string) (*model.Provider, error) {
	var dup *model.Provider
	err := r.root.WithTx(ctx, func(repo *SqliteRepository) error {
		tx := &providerRepo{db: repo.executor, root: repo}

		var src model.Provider
		if err := tx.db.GetContext(ctx, &src, `SELECT * FROM providers WHERE id = ?`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}

		name, err := store.CopyName(ctx, src.Name, tx.nameTaken)
		if err != nil {
			return err
		}

		dup = &model.Provider{
			Name:    name,
			Inputs:  append(model.InputFields(nil), src.Inputs...),
			Pricing: clonePricing(src.Pricing),
		}
		return tx.Create(ctx, dup)
	})
	if err != nil {
		return nil, err
	}
	return dup, nil
}

func (r *providerRepo) nameTaken(ctx context.Context, name string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM providers WHERE name = ?`, name); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *providerRepo) MergePricing(ctx context.Context, id string, entries model.Pricing) error {
	if len(entries) == 0 {
		return nil
	}
	return r.root.WithTx(ctx, func(repo *SqliteRepository) error {
		var current model.Pricing
		err := repo.executor.GetContext(ctx, &current, `SELECT pricing_json FROM providers WHERE id = ?`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}

		if current == nil {
			current = make(model.Pricing, len(entries))
		}
		for k, v := range entries {
			current[k] = v
		}

		_, err = repo.executor.ExecContext(ctx,
			`UPDATE providers SET pricing_json = ?, updated_at = ? WHERE id = ?`,
			current, time.Now().UTC(), id)
		return err
	})
}

func (r *providerRepo) ClearPricing(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE providers SET pricing_json = NULL, updated_at = ? WHERE pricing_json IS NOT NULL`,
		time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type runRepo struct {
	db DB
}

func (r *runRepo) Log(ctx context.Context, run *model.ReportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	query := `
	INSERT INTO report_runs (
		id, provider_count, cache_hits, pricing_hits, misses, fallback,
		upstream_latency_ms, status_code, created_at
	) VALUES (
		:id, :provider_count, :cache_hits, :pricing_hits, :misses, :fallback,
		:upstream_latency_ms, :status_code, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, run)
	return err
}

func (r *runRepo) GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	stats := []model.DailyStats{}
	query := `
		SELECT
			DATE(created_at) as date,
			COUNT(*) as reports,
			COALESCE(SUM(provider_count), 0) as providers,
			COALESCE(SUM(cache_hits), 0) as cache_hits,
			COALESCE(SUM(pricing_hits), 0) as pricing_hits,
			COALESCE(SUM(misses), 0) as misses,
			COALESCE(SUM(fallback), 0) as fallbacks,
			COALESCE(AVG(upstream_latency_ms), 0) as avg_latency
		FROM report_runs
		WHERE created_at >= DATE('now', ?)
		GROUP BY date
		ORDER BY date DESC
	`
	// SQLite date offset format is '-7 days'
	err := r.db.SelectContext(ctx, &stats, query, fmt.Sprintf("-%d days", days))
	return stats, err
}

func mapConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return store.ErrConflict
	}
	return err
}

func clonePricing(p model.Pricing) model.Pricing {
	if p == nil {
		return nil
	}
	out := make(model.Pricing, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
