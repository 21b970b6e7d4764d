package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	providersCollection = "providers"
	runsCollection      = "report_runs"
)

// Repository implements store.Repository on a MongoDB database.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStorage connects, pings and ensures the unique name index.
func NewMongoStorage(ctx context.Context, uri, database string, logger *zap.Logger) (store.Repository, error) {
	if uri == "" {
		return nil, errors.New("mongo: empty connection string")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	repo := &Repository{client: client, db: client.Database(database)}

	_, err = repo.db.Collection(providersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_provider_name"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ensure provider index: %w", err)
	}

	logger.Info("Catalog database ready", zap.String("driver", "mongo"), zap.String("database", database))

	return repo, nil
}

func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *Repository) Providers() store.ProviderRepository {
	return &providerRepo{coll: r.db.Collection(providersCollection)}
}

func (r *Repository) Runs() store.RunRepository {
	return &runRepo{coll: r.db.Collection(runsCollection)}
}

type providerRepo struct {
	coll *mongo.Collection
}

func (r *providerRepo) List(ctx context.Context) ([]model.Provider, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	providers := []model.Provider{}
	if err := cur.All(ctx, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// resolve finds the document for a ref, trying the id before the name.
func (r *providerRepo) resolve(ctx context.Context, ref string) (*model.Provider, error) {
	for _, filter := range []bson.D{{{Key: "_id", Value: ref}}, {{Key: "name", Value: ref}}} {
		var p model.Provider
		err := r.coll.FindOne(ctx, filter).Decode(&p)
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
	}
	return nil, store.ErrNotFound
}

func (r *providerRepo) Get(ctx context.Context, ref string) (*model.Provider, error) {
	return r.resolve(ctx, ref)
}

func (r *providerRepo) Create(ctx context.Context, p *model.Provider) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Inputs == nil {
		p.Inputs = model.InputFields{}
	}

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (r *providerRepo) Update(ctx context.Context, ref string, patch model.ProviderPatch) (*model.Provider, error) {
	p, err := r.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC().Truncate(time.Millisecond)}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Inputs != nil {
		set = append(set, bson.E{Key: "inputs", Value: patch.Inputs})
	}
	if patch.Pricing != nil {
		set = append(set, bson.E{Key: "pricing", Value: patch.Pricing})
	}

	var updated model.Provider
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: p.ID}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	switch {
	case err == nil:
		return &updated, nil
	case mongo.IsDuplicateKeyError(err):
		return nil, store.ErrConflict
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, store.ErrNotFound
	default:
		return nil, err
	}
}

func (r *providerRepo) Delete(ctx context.Context, ref string) error {
	p, err := r.resolve(ctx, ref)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: p.ID}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *providerRepo) Duplicate(ctx context.Context, id string) (*model.Provider, error) {
	var src model.Provider
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&src); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	name, err := store.CopyName(ctx, src.Name, r.nameTaken)
	if err != nil {
		return nil, err
	}

	dup := &model.Provider{
		Name:    name,
		Inputs:  append(model.InputFields(nil), src.Inputs...),
		Pricing: src.Pricing,
	}
	if err := r.Create(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

func (r *providerRepo) nameTaken(ctx context.Context, name string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "name", Value: name}})
	return n > 0, err
}

// MergePricing reads the current memo and writes the merged map back. Memo keys
// embed raw input values, which may contain dots, so per-key $set paths are not
// an option.
func (r *providerRepo) MergePricing(ctx context.Context, id string, entries model.Pricing) error {
	if len(entries) == 0 {
		return nil
	}

	var p model.Provider
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.ErrNotFound
		}
		return err
	}

	merged := make(model.Pricing, len(p.Pricing)+len(entries))
	for k, v := range p.Pricing {
		merged[k] = v
	}
	for k, v := range entries {
		merged[k] = v
	}

	_, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "pricing", Value: merged},
			{Key: "updatedAt", Value: time.Now().UTC().Truncate(time.Millisecond)},
		}}},
	)
	return err
}

func (r *providerRepo) ClearPricing(ctx context.Context) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.D{{Key: "pricing", Value: bson.D{{Key: "$exists", Value: true}}}},
		bson.D{{Key: "$unset", Value: bson.D{{Key: "pricing", Value: ""}}}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

type runRepo struct {
	coll *mongo.Collection
}

func (r *runRepo) Log(ctx context.Context, run *model.ReportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, run)
	return err
}

func (r *runRepo) GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$created_at"},
			}}}},
			{Key: "reports", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "providers", Value: bson.D{{Key: "$sum", Value: "$provider_count"}}},
			{Key: "cache_hits", Value: bson.D{{Key: "$sum", Value: "$cache_hits"}}},
			{Key: "pricing_hits", Value: bson.D{{Key: "$sum", Value: "$pricing_hits"}}},
			{Key: "misses", Value: bson.D{{Key: "$sum", Value: "$misses"}}},
			{Key: "fallbacks", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$fallback", 1, 0}},
			}}}},
			{Key: "avg_latency", Value: bson.D{{Key: "$avg", Value: "$upstream_latency_ms"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	stats := []model.DailyStats{}
	if err := cur.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
