package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/pkg/document"
	"github.com/luckypig3400/NEC-Backend/pkg/metrics"
)

const tableSchedules = "schedules"

type scheduleRepository struct {
	BaseRepository
}

func NewScheduleRepository(db *sqlx.DB, m *metrics.Metrics) repository.ScheduleRepository {
	return &scheduleRepository{BaseRepository{db: db, metrics: m}}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *model.Schedule) (err error) {
	start := time.Now()
	defer func() { r.observe(tableSchedules, "insert", start, err) }()

	if schedule.ID == "" {
		schedule.ID = model.NewID()
	}
	if schedule.ID, err = model.CanonicalID(schedule.ID); err != nil {
		return err
	}
	doc, err := encodeDoc(schedule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO schedules (
			id, patient_id, report_id, procedure_code, status,
			created_at, updated_at, doc
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
	`
	_, err = r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.PatientID,
		schedule.ReportID,
		schedule.ProcedureCode,
		schedule.Status,
		nullTime(schedule.CreatedAt),
		nullTime(schedule.UpdatedAt),
		doc,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id string) (s *model.Schedule, err error) {
	start := time.Now()
	defer func() { r.observe(tableSchedules, "get", start, ignoreNotFound(err)) }()

	key, err := model.CanonicalID(id)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, r.db, key, false)
}

func (r *scheduleRepository) get(ctx context.Context, q sqlx.QueryerContext, key string, lock bool) (*model.Schedule, error) {
	query := `SELECT doc FROM schedules WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var raw []byte
	if err := sqlx.GetContext(ctx, q, &raw, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	s := &model.Schedule{}
	if err := decodeDoc(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *scheduleRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (s *model.Schedule, err error) {
	start := time.Now()
	defer func() { r.observe(tableSchedules, "update", start, ignoreNotFound(err)) }()

	key, err := model.CanonicalID(id)
	if err != nil {
		return nil, err
	}

	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := r.get(ctx, tx, key, true)
		if err != nil {
			return err
		}
		if err := document.Merge(current, fields); err != nil {
			return err
		}
		current.ID = key

		doc, err := encodeDoc(current)
		if err != nil {
			return err
		}

		query := `
			UPDATE schedules SET
				patient_id = $1, report_id = $2, procedure_code = $3, status = $4,
				created_at = $5, updated_at = $6, doc = $7::jsonb
			WHERE id = $8
		`
		_, err = tx.ExecContext(ctx, query,
			current.PatientID,
			current.ReportID,
			current.ProcedureCode,
			current.Status,
			nullTime(current.CreatedAt),
			nullTime(current.UpdatedAt),
			doc,
			key,
		)
		if err != nil {
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		s = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id string) (s *model.Schedule, err error) {
	start := time.Now()
	defer func() { r.observe(tableSchedules, "delete", start, ignoreNotFound(err)) }()

	key, err := model.CanonicalID(id)
	if err != nil {
		return nil, err
	}

	var raw []byte
	if err := r.db.GetContext(ctx, &raw, `DELETE FROM schedules WHERE id = $1 RETURNING doc`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete schedule: %w", err)
	}

	s = &model.Schedule{}
	if err := decodeDoc(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *scheduleRepository) Find(ctx context.Context, filter *model.ScheduleFilter, opts *model.FindOptions) (out []*model.Schedule, err error) {
	start := time.Now()
	defer func() { r.observe(tableSchedules, "select", start, err) }()

	where, args := scheduleWhere(filter)
	order, args, err := scheduleOrder(opts, args)
	if err != nil {
		return nil, err
	}

	var docs [][]byte
	if err := r.db.SelectContext(ctx, &docs, `SELECT doc FROM schedules`+where+order, args...); err != nil {
		return nil, fmt.Errorf("failed to find schedules: %w", err)
	}

	out = make([]*model.Schedule, 0, len(docs))
	for _, raw := range docs {
		s := &model.Schedule{}
		if err := decodeDoc(raw, s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *scheduleRepository) Count(ctx context.Context, filter *model.ScheduleFilter) (n int64, err error) {
	start := time.Now()
	defer func() { r.observe(tableSchedules, "count", start, err) }()

	where, args := scheduleWhere(filter)
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM schedules`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return n, nil
}
