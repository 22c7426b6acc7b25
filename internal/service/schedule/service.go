// Package schedule holds the schedule query engine and the lifecycle
// operations: create, status change, patch and cascading delete.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/internal/service/event"
	"github.com/luckypig3400/NEC-Backend/pkg/document"
	apperrors "github.com/luckypig3400/NEC-Backend/pkg/errors"
)

const resourceName = "schedule"

type ScheduleService interface {
	List(ctx context.Context, params ListParams) (*model.ScheduleListResult, error)
	Create(ctx context.Context, schedule *model.Schedule) (*model.Schedule, error)
	UpdateStatus(ctx context.Context, scheduleID string, status model.ScheduleStatus, patientID string) (*model.Schedule, error)
	PatchByID(ctx context.Context, id string, fields map[string]interface{}) (*model.Schedule, error)
	DeleteByScheduleID(ctx context.Context, scheduleID string) (*model.Schedule, error)
	DeleteByID(ctx context.Context, id string) (*model.Schedule, error)
}

type Service struct {
	*QueryEngine
	schedules repository.ScheduleRepository
	reports   repository.ReportRepository
	events    event.Emitter
	now       func() time.Time
}

func NewService(store *repository.Store, events event.Emitter) *Service {
	if events == nil {
		events = event.Nop{}
	}
	return &Service{
		QueryEngine: NewQueryEngine(store.Schedules, store.Patients, store.Reports),
		schedules:   store.Schedules,
		reports:     store.Reports,
		events:      events,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create stamps createdAt and updatedAt and defaults the status to pending.
func (s *Service) Create(ctx context.Context, schedule *model.Schedule) (*model.Schedule, error) {
	if schedule == nil {
		return nil, apperrors.NewBadRequest("missing schedule", nil)
	}
	if schedule.Status == "" {
		schedule.Status = model.ScheduleStatusPending
	}
	if err := validateStatus(schedule.Status); err != nil {
		return nil, err
	}

	now := s.now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	s.events.Emit(ctx, model.EventScheduleCreate, schedule.ID, schedule)
	return schedule, nil
}

// UpdateStatus sets the status of one schedule. patientID is accepted for
// compatibility with existing clients and not used.
func (s *Service) UpdateStatus(ctx context.Context, scheduleID string, status model.ScheduleStatus, patientID string) (*model.Schedule, error) {
	if status == "" {
		return nil, apperrors.NewBadRequest("missing status", nil)
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	return s.update(ctx, scheduleID, map[string]interface{}{
		model.KeyStatus: status,
	})
}

// PatchByID merges fields into the schedule. _id and createdAt cannot be
// changed. Values that do not fit the schedule's typed fields are rejected
// before anything is written.
func (s *Service) PatchByID(ctx context.Context, id string, fields map[string]interface{}) (*model.Schedule, error) {
	if v, ok := fields[model.KeyStatus]; ok {
		status, _ := v.(string)
		if err := validateStatus(model.ScheduleStatus(status)); err != nil {
			return nil, err
		}
	}
	patch := document.Without(fields, model.KeyID, model.KeyCreatedAt)
	if err := document.Merge(&model.Schedule{}, patch); err != nil {
		return nil, apperrors.NewBadRequest("invalid schedule", err)
	}
	return s.update(ctx, id, patch)
}

func (s *Service) update(ctx context.Context, id string, fields map[string]interface{}) (*model.Schedule, error) {
	fields[model.KeyUpdatedAt] = s.now()

	updated, err := s.schedules.Update(ctx, id, fields)
	if err != nil {
		return nil, wrap(err, "failed to update schedule")
	}

	s.events.Emit(ctx, model.EventScheduleUpdate, updated.ID, updated)
	return updated, nil
}

// DeleteByScheduleID deletes the schedule and then the report it links to.
// A missing schedule is reported only after the cascade step, which is then
// skipped for lack of a report id.
func (s *Service) DeleteByScheduleID(ctx context.Context, scheduleID string) (*model.Schedule, error) {
	deleted, err := s.schedules.Delete(ctx, scheduleID)
	missing := errors.Is(err, repository.ErrNotFound)
	if err != nil && !missing {
		return nil, fmt.Errorf("failed to delete schedule: %w", err)
	}

	if deleted != nil && deleted.ReportID != "" {
		if _, err := s.reports.Delete(ctx, deleted.ReportID); err != nil {
			return nil, fmt.Errorf("failed to delete report %s of schedule %s: %w", deleted.ReportID, deleted.ID, err)
		}
	}

	if missing {
		return nil, apperrors.NewNotFound(resourceName, err)
	}

	s.events.Emit(ctx, model.EventScheduleDelete, deleted.ID, deleted)
	return deleted, nil
}

// DeleteByID deletes the schedule only; its report is left in place.
func (s *Service) DeleteByID(ctx context.Context, id string) (*model.Schedule, error) {
	deleted, err := s.schedules.Delete(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to delete schedule")
	}

	s.events.Emit(ctx, model.EventScheduleDelete, deleted.ID, deleted)
	return deleted, nil
}

func validateStatus(status model.ScheduleStatus) error {
	switch status {
	case "":
		return apperrors.NewBadRequest("missing status", nil)
	case model.ScheduleStatusAll:
		return apperrors.NewBadRequest(fmt.Sprintf("status %q cannot be stored", status), nil)
	}
	return nil
}

func wrap(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resourceName, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
