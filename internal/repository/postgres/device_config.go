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
	"github.com/luckypig3400/NEC-Backend/pkg/metrics"
)

const tableDeviceConfigs = "device_configs"

type deviceConfigRepository struct {
	BaseRepository
}

func NewDeviceConfigRepository(db *sqlx.DB, m *metrics.Metrics) repository.DeviceConfigRepository {
	return &deviceConfigRepository{BaseRepository{db: db, metrics: m}}
}

func (r *deviceConfigRepository) Create(ctx context.Context, cfg *model.DeviceConfig) (err error) {
	start := time.Now()
	defer func() { r.observe(tableDeviceConfigs, "insert", start, err) }()

	if cfg.ID == "" {
		cfg.ID = model.NewID()
	}
	if cfg.ID, err = model.CanonicalID(cfg.ID); err != nil {
		return err
	}
	doc, err := encodeDoc(cfg)
	if err != nil {
		return err
	}

	query := `INSERT INTO device_configs (id, weight, doc) VALUES ($1, $2, $3::jsonb)`
	if _, err := r.db.ExecContext(ctx, query, cfg.ID, cfg.Weight, doc); err != nil {
		return fmt.Errorf("failed to create pacs setting: %w", err)
	}
	return nil
}

func (r *deviceConfigRepository) Get(ctx context.Context, id string) (cfg *model.DeviceConfig, err error) {
	start := time.Now()
	defer func() { r.observe(tableDeviceConfigs, "get", start, ignoreNotFound(err)) }()

	key, err := model.CanonicalID(id)
	if err != nil {
		return nil, err
	}

	var raw []byte
	if err := r.db.GetContext(ctx, &raw, `SELECT doc FROM device_configs WHERE id = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pacs setting: %w", err)
	}

	cfg = &model.DeviceConfig{}
	if err := decodeDoc(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *deviceConfigRepository) Save(ctx context.Context, cfg *model.DeviceConfig) (err error) {
	start := time.Now()
	defer func() { r.observe(tableDeviceConfigs, "update", start, ignoreNotFound(err)) }()

	key, err := model.CanonicalID(cfg.ID)
	if err != nil {
		return err
	}
	cfg.ID = key
	doc, err := encodeDoc(cfg)
	if err != nil {
		return err
	}

	query := `UPDATE device_configs SET weight = $1, doc = $2::jsonb WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, cfg.Weight, doc, key)
	if err != nil {
		return fmt.Errorf("failed to save pacs setting: %w", err)
	}
	return requireRow(result)
}

func (r *deviceConfigRepository) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { r.observe(tableDeviceConfigs, "delete", start, ignoreNotFound(err)) }()

	key, err := model.CanonicalID(id)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM device_configs WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete pacs setting: %w", err)
	}
	return requireRow(result)
}

func (r *deviceConfigRepository) List(ctx context.Context) (out []*model.DeviceConfig, err error) {
	start := time.Now()
	defer func() { r.observe(tableDeviceConfigs, "select", start, err) }()

	var docs [][]byte
	if err := r.db.SelectContext(ctx, &docs, `SELECT doc FROM device_configs ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("failed to list pacs settings: %w", err)
	}

	out = make([]*model.DeviceConfig, 0, len(docs))
	for _, raw := range docs {
		cfg := &model.DeviceConfig{}
		if err := decodeDoc(raw, cfg); err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
