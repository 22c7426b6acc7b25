// Package memory is an in-process implementation of the repository interfaces.
// It backs unit tests and the "memory" store driver for local runs.
package memory

import (
	"context"
	"sync"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
)

// DB holds every collection in insertion order.
type DB struct {
	mu        sync.RWMutex
	devices   []*model.DeviceConfig
	schedules []*model.Schedule
	reports   []*model.Report
	patients  []*model.Patient
}

func NewDB() *DB {
	return &DB{}
}

// NewStore wires all repositories over one DB.
func NewStore(db *DB) *repository.Store {
	noop := func(context.Context) error { return nil }
	return &repository.Store{
		DeviceConfigs: NewDeviceConfigRepository(db),
		Schedules:     NewScheduleRepository(db),
		Reports:       NewReportRepository(db),
		Patients:      NewPatientRepository(db),
		Ping:          noop,
		Migrate:       noop,
		Close:         noop,
	}
}

// canonical validates an identifier the same way the document store does.
func canonical(id string) (string, error) {
	return model.CanonicalID(id)
}
