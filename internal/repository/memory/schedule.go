package memory

import (
	"context"
	"fmt"
	"regexp"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/pkg/document"
)

type scheduleRepository struct {
	db *DB
}

func NewScheduleRepository(db *DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(_ context.Context, schedule *model.Schedule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if schedule.ID == "" {
		schedule.ID = model.NewID()
	}
	id, err := canonical(schedule.ID)
	if err != nil {
		return err
	}
	schedule.ID = id
	r.db.schedules = append(r.db.schedules, schedule.Clone())
	return nil
}

func (r *scheduleRepository) Get(_ context.Context, id string) (*model.Schedule, error) {
	key, err := canonical(id)
	if err != nil {
		return nil, err
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if i := r.indexOf(key); i >= 0 {
		return r.db.schedules[i].Clone(), nil
	}
	return nil, repository.ErrNotFound
}

func (r *scheduleRepository) Update(_ context.Context, id string, fields map[string]interface{}) (*model.Schedule, error) {
	key, err := canonical(id)
	if err != nil {
		return nil, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.indexOf(key)
	if i < 0 {
		return nil, repository.ErrNotFound
	}

	updated := r.db.schedules[i].Clone()
	if err := document.Merge(updated, fields); err != nil {
		return nil, err
	}
	updated.ID = key
	r.db.schedules[i] = updated
	return updated.Clone(), nil
}

func (r *scheduleRepository) Delete(_ context.Context, id string) (*model.Schedule, error) {
	key, err := canonical(id)
	if err != nil {
		return nil, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.indexOf(key)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	deleted := r.db.schedules[i]
	r.db.schedules = append(r.db.schedules[:i], r.db.schedules[i+1:]...)
	return deleted, nil
}

func (r *scheduleRepository) Find(_ context.Context, filter *model.ScheduleFilter, opts *model.FindOptions) ([]*model.Schedule, error) {
	r.db.mu.RLock()
	matched, err := r.match(filter)
	r.db.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if opts == nil {
		return matched, nil
	}

	if err := document.SortStable(matched, opts.Sort, opts.Desc, func(s *model.Schedule) (map[string]interface{}, error) {
		return document.ToMap(s)
	}); err != nil {
		return nil, err
	}

	return page(matched, opts.Skip, opts.Limit), nil
}

func (r *scheduleRepository) Count(_ context.Context, filter *model.ScheduleFilter) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	matched, err := r.match(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// match must be called with the read lock held. It returns clones.
func (r *scheduleRepository) match(filter *model.ScheduleFilter) ([]*model.Schedule, error) {
	var re *regexp.Regexp
	if filter != nil && filter.Search != "" {
		var err error
		re, err = regexp.Compile(filter.Search)
		if err != nil {
			return nil, fmt.Errorf("invalid search pattern: %w", err)
		}
	}

	out := make([]*model.Schedule, 0)
	for _, s := range r.db.schedules {
		if filter != nil && filter.DateRange != nil && !filter.DateRange.Contains(s.CreatedAt) {
			continue
		}
		if re != nil && !re.MatchString(s.ProcedureCode) && !re.MatchString(s.PatientID) {
			continue
		}
		out = append(out, s.Clone())
	}
	return out, nil
}

func (r *scheduleRepository) indexOf(id string) int {
	for i, s := range r.db.schedules {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func page[T any](items []T, skip, limit int64) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= int64(len(items)) {
		return items[:0]
	}
	items = items[skip:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}
