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

type patientRepository struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
}

func NewPatientRepository(db *mongo.Database, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{coll: db.Collection(collPatients), metrics: m}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collPatients, "insert", start, err) }()

	if patient.ObjectID == "" {
		patient.ObjectID = model.NewID()
	}
	doc, err := toDoc(patient)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) FindByPatientIDs(ctx context.Context, ids []string) (out []*model.Patient, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDB(collPatients, "find", start, err) }()

	if len(ids) == 0 {
		return []*model.Patient{}, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{model.KeyPatientKey: bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find patients: %w", err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read patients: %w", err)
	}

	out = make([]*model.Patient, 0, len(docs))
	for _, doc := range docs {
		p := &model.Patient{}
		if err := fromDoc(doc, p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
