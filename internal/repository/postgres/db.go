package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/pkg/metrics"
)

// Config holds the connection settings of the relational backend.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func NewDB(cfg Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewStore wires all repositories over db.
func NewStore(db *sqlx.DB, m *metrics.Metrics) *repository.Store {
	return &repository.Store{
		DeviceConfigs: NewDeviceConfigRepository(db, m),
		Schedules:     NewScheduleRepository(db, m),
		Reports:       NewReportRepository(db, m),
		Patients:      NewPatientRepository(db, m),
		Ping:          db.PingContext,
		Migrate: func(ctx context.Context) error {
			return Migrate(ctx, db)
		},
		Close: func(context.Context) error {
			return db.Close()
		},
	}
}

// Every table keeps the full document in "doc" and promotes the fields that
// are filtered, joined or sorted on into columns. seq preserves insertion order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS device_configs (
		id     TEXT PRIMARY KEY,
		seq    BIGSERIAL,
		weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		doc    JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_device_configs_weight ON device_configs (weight)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id             TEXT PRIMARY KEY,
		seq            BIGSERIAL,
		patient_id     TEXT NOT NULL DEFAULT '',
		report_id      TEXT NOT NULL DEFAULT '',
		procedure_code TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ,
		updated_at     TIMESTAMPTZ,
		doc            JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_created_at ON schedules (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_patient_id ON schedules (patient_id)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id     TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT '',
		doc    JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		object_id TEXT PRIMARY KEY,
		id        TEXT NOT NULL,
		doc       JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patients_id ON patients (id)`,
}

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	base := NewBaseRepository(db)
	return base.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
