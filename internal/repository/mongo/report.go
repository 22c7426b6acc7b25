package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/pkg/metrics"
)

type reportRepository struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
}

func NewReportRepository(db *mongo.Database, m *metrics.Metrics) repository.ReportRepository {
	return &reportRepository{coll: db.Collection(collReports), metrics: m}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collReports, "insert", start, err) }()

	if report.ID == "" {
		report.ID = model.NewID()
	}
	doc, err := toDoc(report)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) FindByIDs(ctx context.Context, ids []string) (out []*model.Report, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collReports, "find", start, err) }()

	oids, err := objectIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(oids) == 0 {
		return []*model.Report{}, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{model.KeyID: bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}

	out = make([]*model.Report, 0, len(docs))
	for _, doc := range docs {
		rep := &model.Report{}
		if err := fromDoc(doc, rep); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

func (r *reportRepository) Delete(ctx context.Context, id string) (deleted bool, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collReports, "delete", start, err) }()

	oid, err := model.CoerceObjectID(id)
	if err != nil {
		return false, err
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{model.KeyID: oid})
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}
	return result.DeletedCount > 0, nil
}
