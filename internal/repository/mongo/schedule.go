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

type scheduleRepository struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
}

// NewScheduleRepository returns a repository that also implements
// repository.ScheduleAggregator.
func NewScheduleRepository(db *mongo.Database, m *metrics.Metrics) repository.ScheduleRepository {
	return &scheduleRepository{coll: db.Collection(collSchedules), metrics: m}
}

var _ repository.ScheduleAggregator = (*scheduleRepository)(nil)

func (r *scheduleRepository) Create(ctx context.Context, schedule *model.Schedule) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collSchedules, "insert", start, err) }()

	if schedule.ID == "" {
		schedule.ID = model.NewID()
	}
	doc, err := toDoc(schedule)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id string) (s *model.Schedule, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collSchedules, "find_one", start, ignoreNotFound(err)) }()

	oid, err := model.CoerceObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	if err := r.coll.FindOne(ctx, bson.M{model.KeyID: oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return decodeSchedule(doc)
}

func (r *scheduleRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (s *model.Schedule, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collSchedules, "find_one_and_update", start, ignoreNotFound(err)) }()

	oid, err := model.CoerceObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{model.KeyID: oid},
		bson.M{"$set": setDoc(fields)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}
	return decodeSchedule(doc)
}

func (r *scheduleRepository) Delete(ctx context.Context, id string) (s *model.Schedule, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collSchedules, "find_one_and_delete", start, ignoreNotFound(err)) }()

	oid, err := model.CoerceObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	if err := r.coll.FindOneAndDelete(ctx, bson.M{model.KeyID: oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete schedule: %w", err)
	}
	return decodeSchedule(doc)
}

func (r *scheduleRepository) Find(ctx context.Context, filter *model.ScheduleFilter, opts *model.FindOptions) (out []*model.Schedule, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collSchedules, "find", start, err) }()

	findOpts := options.Find()
	if opts != nil {
		findOpts.SetSort(sortDoc(opts.Sort, opts.Desc))
		if opts.Skip > 0 {
			findOpts.SetSkip(opts.Skip)
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
	} else {
		findOpts.SetSort(sortDoc("", false))
	}

	cursor, err := r.coll.Find(ctx, scheduleFilter(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to find schedules: %w", err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read schedules: %w", err)
	}

	out = make([]*model.Schedule, 0, len(docs))
	for _, doc := range docs {
		s, err := decodeSchedule(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *scheduleRepository) Count(ctx context.Context, filter *model.ScheduleFilter) (n int64, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collSchedules, "count", start, err) }()

	n, err = r.coll.CountDocuments(ctx, scheduleFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return n, nil
}

func (r *scheduleRepository) Aggregate(ctx context.Context, filter *model.ScheduleFilter, opts *model.FindOptions) (out []*model.ScheduleRow, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collSchedules, "aggregate", start, err) }()

	cursor, err := r.coll.Aggregate(ctx, schedulePipeline(filter, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate schedules: %w", err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read schedules: %w", err)
	}

	out = make([]*model.ScheduleRow, 0, len(docs))
	for _, doc := range docs {
		row, err := decodeRow(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func decodeSchedule(doc bson.M) (*model.Schedule, error) {
	s := &model.Schedule{}
	if err := fromDoc(doc, s); err != nil {
		return nil, err
	}
	return s, nil
}

// decodeRow splits the joined patient and report off an aggregate result.
func decodeRow(doc bson.M) (*model.ScheduleRow, error) {
	row := &model.ScheduleRow{}

	if v, ok := normalize(doc[model.KeyPatient]).(map[string]interface{}); ok {
		row.Patient = &model.Patient{}
		if err := fromDoc(bson.M(v), row.Patient); err != nil {
			return nil, err
		}
	}
	if v, ok := normalize(doc[model.KeyReport]).(map[string]interface{}); ok {
		row.Report = &model.Report{}
		if err := fromDoc(bson.M(v), row.Report); err != nil {
			return nil, err
		}
	}
	delete(doc, model.KeyPatient)
	delete(doc, model.KeyReport)

	if err := fromDoc(doc, &row.Schedule); err != nil {
		return nil, err
	}
	return row, nil
}
