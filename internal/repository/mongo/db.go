package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/pkg/metrics"
)

// Collection names follow the existing database.
const (
	collDeviceConfigs = "dicoms"
	collSchedules     = "schedules"
	collReports       = "reports"
	collPatients      = "patients"
)

type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// NewDB connects and pings the server.
func NewDB(ctx context.Context, cfg Config) (*mongo.Database, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	// Test the connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client.Database(cfg.Database), nil
}

// NewStore wires all repositories over db.
func NewStore(db *mongo.Database, m *metrics.Metrics) *repository.Store {
	return &repository.Store{
		DeviceConfigs: NewDeviceConfigRepository(db, m),
		Schedules:     NewScheduleRepository(db, m),
		Reports:       NewReportRepository(db, m),
		Patients:      NewPatientRepository(db, m),
		Ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, readpref.Primary())
		},
		Migrate: func(ctx context.Context) error {
			return EnsureIndexes(ctx, db)
		},
		Close: func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
	}
}

// EnsureIndexes creates the indexes the listing and join paths rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		collSchedules: {
			{Keys: bson.D{{Key: model.KeyCreatedAt, Value: 1}}},
			{Keys: bson.D{{Key: model.KeyPatientID, Value: 1}}},
		},
		collPatients: {
			{Keys: bson.D{{Key: model.KeyPatientKey, Value: 1}}},
		},
		collDeviceConfigs: {
			{Keys: bson.D{{Key: model.KeyWeight, Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
