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

const tableReports = "reports"

type reportRepository struct {
	BaseRepository
}

func NewReportRepository(db *sqlx.DB, m *metrics.Metrics) repository.ReportRepository {
	return &reportRepository{BaseRepository{db: db, metrics: m}}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) (err error) {
	start := time.Now()
	defer func() { r.observe(tableReports, "insert", start, err) }()

	if report.ID == "" {
		report.ID = model.NewID()
	}
	if report.ID, err = model.CanonicalID(report.ID); err != nil {
		return err
	}
	doc, err := encodeDoc(report)
	if err != nil {
		return err
	}

	query := `INSERT INTO reports (id, status, doc) VALUES ($1, $2, $3::jsonb)`
	if _, err := r.db.ExecContext(ctx, query, report.ID, report.Status, doc); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) FindByIDs(ctx context.Context, ids []string) (out []*model.Report, err error) {
	start := time.Now()
	defer func() { r.observe(tableReports, "select", start, err) }()

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		key, err := model.CanonicalID(id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return []*model.Report{}, nil
	}

	var docs [][]byte
	if err := r.db.SelectContext(ctx, &docs, `SELECT doc FROM reports WHERE id = ANY($1)`, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}

	out = make([]*model.Report, 0, len(docs))
	for _, raw := range docs {
		rep := &model.Report{}
		if err := decodeDoc(raw, rep); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

func (r *reportRepository) Delete(ctx context.Context, id string) (deleted bool, err error) {
	start := time.Now()
	defer func() { r.observe(tableReports, "delete", start, err) }()

	key, err := model.CanonicalID(id)
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
