package memory

import (
	"context"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
)

type reportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(_ context.Context, report *model.Report) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if report.ID == "" {
		report.ID = model.NewID()
	}
	id, err := canonical(report.ID)
	if err != nil {
		return err
	}
	report.ID = id
	c := *report
	r.db.reports = append(r.db.reports, &c)
	return nil
}

func (r *reportRepository) FindByIDs(_ context.Context, ids []string) ([]*model.Report, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		key, err := canonical(id)
		if err != nil {
			return nil, err
		}
		want[key] = true
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.Report, 0, len(want))
	for _, rep := range r.db.reports {
		if want[rep.ID] {
			c := *rep
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *reportRepository) Delete(_ context.Context, id string) (bool, error) {
	key, err := canonical(id)
	if err != nil {
		return false, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, rep := range r.db.reports {
		if rep.ID == key {
			r.db.reports = append(r.db.reports[:i], r.db.reports[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
