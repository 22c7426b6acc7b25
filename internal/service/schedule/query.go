package schedule

import (
	"context"
	"fmt"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/pkg/document"
)

// QueryEngine builds the filtered, joined and paged schedule view.
//
// Three strategies give the same result. A store that implements
// repository.ScheduleAggregator runs everything in one pipeline. Otherwise,
// when the sort key is a top-level schedule field the store sorts and pages and
// only the page is joined; any other sort key is applied after joining the
// whole filtered set.
type QueryEngine struct {
	schedules repository.ScheduleRepository
	patients  repository.PatientRepository
	reports   repository.ReportRepository
}

func NewQueryEngine(schedules repository.ScheduleRepository, patients repository.PatientRepository, reports repository.ReportRepository) *QueryEngine {
	return &QueryEngine{
		schedules: schedules,
		patients:  patients,
		reports:   reports,
	}
}

// List validates params and returns one page of rows plus the total count of
// schedules matching the date and search filter.
func (e *QueryEngine) List(ctx context.Context, params ListParams) (*model.ScheduleListResult, error) {
	q, err := ParseListParams(params)
	if err != nil {
		return nil, err
	}
	return e.Query(ctx, q)
}

func (e *QueryEngine) Query(ctx context.Context, q *Query) (*model.ScheduleListResult, error) {
	count, err := e.schedules.Count(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count schedules: %w", err)
	}

	rows := []*model.ScheduleRow{}
	if q.Limit > 0 {
		if rows, err = e.rows(ctx, q); err != nil {
			return nil, err
		}
	}

	return &model.ScheduleListResult{
		Results: rows,
		Count:   count,
	}, nil
}

func (e *QueryEngine) rows(ctx context.Context, q *Query) ([]*model.ScheduleRow, error) {
	opts := &model.FindOptions{
		Sort:  q.Sort,
		Desc:  q.Desc,
		Skip:  q.Skip(),
		Limit: q.Limit,
	}

	if agg, ok := e.schedules.(repository.ScheduleAggregator); ok {
		rows, err := agg.Aggregate(ctx, q.Filter, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate schedules: %w", err)
		}
		return rows, nil
	}

	if q.Sort == "" || model.IsScheduleField(q.Sort) {
		schedules, err := e.schedules.Find(ctx, q.Filter, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to find schedules: %w", err)
		}
		return e.join(ctx, schedules)
	}

	schedules, err := e.schedules.Find(ctx, q.Filter, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to find schedules: %w", err)
	}
	rows, err := e.join(ctx, schedules)
	if err != nil {
		return nil, err
	}
	if err := document.SortStable(rows, q.Sort, q.Desc, rowDoc); err != nil {
		return nil, fmt.Errorf("failed to sort schedules: %w", err)
	}
	return page(rows, opts.Skip, opts.Limit), nil
}

// join attaches at most one patient and one report to each schedule, fetching
// each related collection once.
func (e *QueryEngine) join(ctx context.Context, schedules []*model.Schedule) ([]*model.ScheduleRow, error) {
	var (
		patientIDs []string
		reportIDs  []string
		seenP      = map[string]bool{}
		seenR      = map[string]bool{}
	)
	for _, s := range schedules {
		if s.PatientID != "" && !seenP[s.PatientID] {
			seenP[s.PatientID] = true
			patientIDs = append(patientIDs, s.PatientID)
		}
		if s.ReportID == "" {
			continue
		}
		rid, err := model.CanonicalID(s.ReportID)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", s.ID, err)
		}
		if !seenR[rid] {
			seenR[rid] = true
			reportIDs = append(reportIDs, rid)
		}
	}

	patients := map[string]*model.Patient{}
	if len(patientIDs) > 0 {
		found, err := e.patients.FindByPatientIDs(ctx, patientIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to find patients: %w", err)
		}
		for _, p := range found {
			if _, ok := patients[p.ID]; !ok {
				patients[p.ID] = p
			}
		}
	}

	reports := map[string]*model.Report{}
	if len(reportIDs) > 0 {
		found, err := e.reports.FindByIDs(ctx, reportIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to find reports: %w", err)
		}
		for _, r := range found {
			if id, err := model.CanonicalID(r.ID); err == nil {
				reports[id] = r
			}
		}
	}

	rows := make([]*model.ScheduleRow, 0, len(schedules))
	for _, s := range schedules {
		row := &model.ScheduleRow{Schedule: *s, Patient: patients[s.PatientID]}
		if s.ReportID != "" {
			// Already validated above.
			rid, _ := model.CanonicalID(s.ReportID)
			row.Report = reports[rid]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rowDoc(r *model.ScheduleRow) (map[string]interface{}, error) {
	return document.ToMap(r)
}

func page[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return items[:0]
	}
	items = items[skip:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}
