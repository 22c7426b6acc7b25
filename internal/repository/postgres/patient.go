package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/pkg/metrics"
)

const tablePatients = "patients"

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{BaseRepository{db: db, metrics: m}}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	start := time.Now()
	defer func() { r.observe(tablePatients, "insert", start, err) }()

	if patient.ObjectID == "" {
		patient.ObjectID = model.NewID()
	}
	doc, err := encodeDoc(patient)
	if err != nil {
		return err
	}

	query := `INSERT INTO patients (object_id, id, doc) VALUES ($1, $2, $3::jsonb)`
	if _, err := r.db.ExecContext(ctx, query, patient.ObjectID, patient.ID, doc); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) FindByPatientIDs(ctx context.Context, ids []string) (out []*model.Patient, err error) {
	start := time.Now()
	defer func() { r.observe(tablePatients, "select", start, err) }()

	if len(ids) == 0 {
		return []*model.Patient{}, nil
	}

	var docs [][]byte
	query := `SELECT doc FROM patients WHERE id = ANY($1) ORDER BY object_id`
	if err := r.db.SelectContext(ctx, &docs, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to find patients: %w", err)
	}

	out = make([]*model.Patient, 0, len(docs))
	for _, raw := range docs {
		p := &model.Patient{}
		if err := decodeDoc(raw, p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
