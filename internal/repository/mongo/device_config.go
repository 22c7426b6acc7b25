package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/pkg/metrics"
)

type deviceConfigRepository struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
}

func NewDeviceConfigRepository(db *mongo.Database, m *metrics.Metrics) repository.DeviceConfigRepository {
	return &deviceConfigRepository{coll: db.Collection(collDeviceConfigs), metrics: m}
}

func (r *deviceConfigRepository) Create(ctx context.Context, cfg *model.DeviceConfig) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collDeviceConfigs, "insert", start, err) }()

	if cfg.ID == "" {
		cfg.ID = model.NewID()
	}
	doc, err := toDoc(cfg)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create pacs setting: %w", err)
	}
	return nil
}

func (r *deviceConfigRepository) Get(ctx context.Context, id string) (cfg *model.DeviceConfig, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collDeviceConfigs, "find_one", start, ignoreNotFound(err)) }()

	oid, err := model.CoerceObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	if err := r.coll.FindOne(ctx, bson.M{model.KeyID: oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pacs setting: %w", err)
	}

	cfg = &model.DeviceConfig{}
	if err := fromDoc(doc, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *deviceConfigRepository) Save(ctx context.Context, cfg *model.DeviceConfig) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collDeviceConfigs, "replace", start, ignoreNotFound(err)) }()

	doc, err := toDoc(cfg)
	if err != nil {
		return err
	}

	result, err := r.coll.ReplaceOne(ctx, bson.M{model.KeyID: doc[model.KeyID]}, doc)
	if err != nil {
		return fmt.Errorf("failed to save pacs setting: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *deviceConfigRepository) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collDeviceConfigs, "delete", start, ignoreNotFound(err)) }()

	oid, err := model.CoerceObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{model.KeyID: oid})
	if err != nil {
		return fmt.Errorf("failed to delete pacs setting: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *deviceConfigRepository) List(ctx context.Context) (out []*model.DeviceConfig, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collDeviceConfigs, "find", start, err) }()

	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(sortDoc("", false)))
	if err != nil {
		return nil, fmt.Errorf("failed to list pacs settings: %w", err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read pacs settings: %w", err)
	}

	out = make([]*model.DeviceConfig, 0, len(docs))
	for _, doc := range docs {
		cfg := &model.DeviceConfig{}
		if err := fromDoc(doc, cfg); err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
