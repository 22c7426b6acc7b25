package repository

import (
	"context"
	"errors"

	"github.com/luckypig3400/NEC-Backend/internal/model"
)

// ErrNotFound is returned when an identifier does not resolve to a record.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	// DeviceConfigRepository stores the PACS configuration list. List returns
	// entries in insertion order; ordering by weight is the service's job.
	DeviceConfigRepository interface {
		Create(ctx context.Context, cfg *model.DeviceConfig) error
		Get(ctx context.Context, id string) (*model.DeviceConfig, error)
		Save(ctx context.Context, cfg *model.DeviceConfig) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context) ([]*model.DeviceConfig, error)
	}

	ScheduleRepository interface {
		Create(ctx context.Context, schedule *model.Schedule) error
		Get(ctx context.Context, id string) (*model.Schedule, error)
		// Update merges fields into the schedule and returns the result.
		Update(ctx context.Context, id string, fields map[string]interface{}) (*model.Schedule, error)
		// Delete removes the schedule and returns what was removed.
		Delete(ctx context.Context, id string) (*model.Schedule, error)
		// Find returns the schedules matching filter. opts.Sort is limited to
		// model.ScheduleFields.
		Find(ctx context.Context, filter *model.ScheduleFilter, opts *model.FindOptions) ([]*model.Schedule, error)
		Count(ctx context.Context, filter *model.ScheduleFilter) (int64, error)
	}

	// ScheduleAggregator is implemented by stores that can run the whole
	// filter, join, sort and page pipeline natively. opts.Sort may be any path,
	// including ones into the joined patient and report.
	ScheduleAggregator interface {
		Aggregate(ctx context.Context, filter *model.ScheduleFilter, opts *model.FindOptions) ([]*model.ScheduleRow, error)
	}

	ReportRepository interface {
		Create(ctx context.Context, report *model.Report) error
		FindByIDs(ctx context.Context, ids []string) ([]*model.Report, error)
		// Delete reports whether a report was removed; a missing one is not an error.
		Delete(ctx context.Context, id string) (bool, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		// FindByPatientIDs matches on the business "id" field, not the store key.
		FindByPatientIDs(ctx context.Context, ids []string) ([]*model.Patient, error)
	}
)

// Store bundles the repositories of one backend.
type Store struct {
	DeviceConfigs DeviceConfigRepository
	Schedules     ScheduleRepository
	Reports       ReportRepository
	Patients      PatientRepository

	// Ping checks connectivity for readiness probes.
	Ping func(ctx context.Context) error
	// Migrate creates indexes or tables.
	Migrate func(ctx context.Context) error
	Close   func(ctx context.Context) error
}
