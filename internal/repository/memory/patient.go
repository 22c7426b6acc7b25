package memory

import (
	"context"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
)

type patientRepository struct {
	db *DB
}

func NewPatientRepository(db *DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(_ context.Context, patient *model.Patient) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if patient.ObjectID == "" {
		patient.ObjectID = model.NewID()
	}
	c := *patient
	r.db.patients = append(r.db.patients, &c)
	return nil
}

func (r *patientRepository) FindByPatientIDs(_ context.Context, ids []string) ([]*model.Patient, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.Patient, 0, len(want))
	for _, p := range r.db.patients {
		if want[p.ID] {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}
