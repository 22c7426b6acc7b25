package schedule

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/internal/repository/memory"
	apperrors "github.com/luckypig3400/NEC-Backend/pkg/errors"
)

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	store  *repository.Store
	report *model.Report
	// schedules by procedure code
	byCode map[string]*model.Schedule
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(memory.NewDB())

	for id, name := range map[string]string{"P1": "Chen", "P2": "Avery", "P3": "Lin"} {
		require.NoError(t, store.Patients.Create(ctx, &model.Patient{
			ID:     id,
			Fields: map[string]interface{}{"name": name},
		}))
	}

	report := &model.Report{Status: "finished", Fields: map[string]interface{}{"Blood": "A"}}
	require.NoError(t, store.Reports.Create(ctx, report))

	f := &fixture{
		svc:    NewService(store, nil),
		store:  store,
		report: report,
		byCode: map[string]*model.Schedule{},
	}

	for _, s := range []*model.Schedule{
		{PatientID: "P1", ProcedureCode: "CT-HEAD", CreatedAt: day.Add(1 * time.Hour), ReportID: strings.ToUpper(report.ID)},
		{PatientID: "P2", ProcedureCode: "MR-KNEE", CreatedAt: day.Add(2 * time.Hour)},
		{PatientID: "P3", ProcedureCode: "CT-CHEST", CreatedAt: day.Add(3 * time.Hour)},
		{PatientID: "P1", ProcedureCode: "XR-HAND", CreatedAt: day.Add(48 * time.Hour)},
	} {
		s.Status = model.ScheduleStatusPending
		s.UpdatedAt = s.CreatedAt
		require.NoError(t, store.Schedules.Create(ctx, s))
		f.byCode[s.ProcedureCode] = s
	}
	return f
}

func codes(rows []*model.ScheduleRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ProcedureCode)
	}
	return out
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("date range", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "10", Offset: "0", DateRange: dayRange})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Count)
		assert.Equal(t, []string{"CT-HEAD", "MR-KNEE", "CT-CHEST"}, codes(res.Results))
	})

	t.Run("status all ignores the date range", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "10", Offset: "0", Status: "all", DateRange: dayRange})
		require.NoError(t, err)
		assert.Equal(t, int64(4), res.Count)
		assert.Len(t, res.Results, 4)
	})

	t.Run("search procedure code", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "10", Offset: "0", Status: "all", Search: "CT"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Count)
		assert.ElementsMatch(t, []string{"CT-HEAD", "CT-CHEST"}, codes(res.Results))
	})

	t.Run("search patient id", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "10", Offset: "0", Status: "all", Search: "^P2$"})
		require.NoError(t, err)
		assert.Equal(t, []string{"MR-KNEE"}, codes(res.Results))
	})

	t.Run("page with count of all matches", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "2", Offset: "1", Sort: "createdAt", DateRange: dayRange})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Count)
		assert.Equal(t, []string{"CT-CHEST"}, codes(res.Results))
	})

	t.Run("offset past the end", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "2", Offset: "5", DateRange: dayRange})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Count)
		assert.Empty(t, res.Results)
	})

	t.Run("limit zero", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "0", Offset: "0", DateRange: dayRange})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Count)
		assert.NotNil(t, res.Results)
		assert.Empty(t, res.Results)
	})

	t.Run("descending schedule field", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "10", Offset: "0", Sort: "createdAt", Desc: "1", DateRange: dayRange})
		require.NoError(t, err)
		assert.Equal(t, []string{"CT-CHEST", "MR-KNEE", "CT-HEAD"}, codes(res.Results))
	})

	t.Run("sort by joined patient", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "2", Offset: "0", Sort: "patient.name", DateRange: dayRange})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Count)
		assert.Equal(t, []string{"MR-KNEE", "CT-HEAD"}, codes(res.Results))

		res, err = f.svc.List(ctx, ListParams{Limit: "2", Offset: "1", Sort: "patient.name", Desc: "1", DateRange: dayRange})
		require.NoError(t, err)
		assert.Equal(t, []string{"MR-KNEE"}, codes(res.Results))
	})

	t.Run("rows carry patient and report", func(t *testing.T) {
		res, err := f.svc.List(ctx, ListParams{Limit: "10", Offset: "0", Search: "CT-HEAD", Status: "all"})
		require.NoError(t, err)
		require.Len(t, res.Results, 1)

		row := res.Results[0]
		require.NotNil(t, row.Patient)
		assert.Equal(t, "Chen", row.Patient.Fields["name"])
		require.NotNil(t, row.Report)
		assert.Equal(t, f.report.ID, row.Report.ID)
		assert.Equal(t, "A", row.Report.Fields["Blood"])

		res, err = f.svc.List(ctx, ListParams{Limit: "10", Offset: "0", Search: "MR", Status: "all"})
		require.NoError(t, err)
		require.Len(t, res.Results, 1)
		assert.NotNil(t, res.Results[0].Patient)
		assert.Nil(t, res.Results[0].Report)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.svc.List(ctx, ListParams{Limit: "10", Offset: "0"})
		assert.True(t, apperrors.IsBadRequest(err))

		_, err = f.svc.List(ctx, ListParams{DateRange: dayRange})
		assert.True(t, apperrors.IsBadRequest(err))
	})
}

func TestJoinRejectsMalformedReportID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.NewDB())
	require.NoError(t, store.Schedules.Create(ctx, &model.Schedule{
		PatientID: "P9",
		ReportID:  "not-an-id",
		CreatedAt: day,
	}))

	_, err := NewService(store, nil).List(ctx, ListParams{Limit: "1", Offset: "0", Status: "all"})
	assert.ErrorIs(t, err, model.ErrInvalidID)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	created, err := f.svc.Create(ctx, &model.Schedule{PatientID: "P2", ProcedureCode: "US-ABD"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.ScheduleStatusPending, created.Status)
	assert.Equal(t, fixed, created.CreatedAt)
	assert.Equal(t, fixed, created.UpdatedAt)

	_, err = f.svc.Create(ctx, &model.Schedule{Status: model.ScheduleStatusAll})
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = f.svc.Create(ctx, nil)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.byCode["MR-KNEE"]

	updated, err := f.svc.UpdateStatus(ctx, s.ID, "finished", "ignored")
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatus("finished"), updated.Status)
	assert.Equal(t, "P2", updated.PatientID)
	assert.True(t, updated.UpdatedAt.After(s.UpdatedAt))
	assert.Equal(t, s.CreatedAt, updated.CreatedAt)

	_, err = f.svc.UpdateStatus(ctx, s.ID, "", "")
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = f.svc.UpdateStatus(ctx, s.ID, model.ScheduleStatusAll, "")
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = f.svc.UpdateStatus(ctx, model.NewID(), "finished", "")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.UpdateStatus(ctx, "bad", "finished", "")
	assert.ErrorIs(t, err, model.ErrInvalidID)
}

func TestPatchByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.byCode["CT-CHEST"]

	updated, err := f.svc.PatchByID(ctx, s.ID, map[string]interface{}{
		"_id":       model.NewID(),
		"createdAt": "2000-01-01T00:00:00Z",
		"room":      "B2",
	})
	require.NoError(t, err)
	assert.Equal(t, s.ID, updated.ID)
	assert.Equal(t, s.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "B2", updated.Fields["room"])

	_, err = f.svc.PatchByID(ctx, s.ID, map[string]interface{}{"status": "all"})
	assert.True(t, apperrors.IsBadRequest(err))

	for _, patch := range []map[string]interface{}{
		{"patientID": 7},
		{"procedureCode": []interface{}{"CT"}},
	} {
		_, err = f.svc.PatchByID(ctx, s.ID, patch)
		assert.True(t, apperrors.IsBadRequest(err), "patch %v", patch)
	}

	stored, err := f.store.Schedules.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "P3", stored.PatientID)
	assert.Equal(t, "CT-CHEST", stored.ProcedureCode)
}

func TestDeleteByScheduleID(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades to the report", func(t *testing.T) {
		f := newFixture(t)
		s := f.byCode["CT-HEAD"]

		deleted, err := f.svc.DeleteByScheduleID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, deleted.ID)

		reports, err := f.store.Reports.FindByIDs(ctx, []string{f.report.ID})
		require.NoError(t, err)
		assert.Empty(t, reports)

		res, err := f.svc.List(ctx, ListParams{Limit: "10", Offset: "0", Status: "all"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Count)
	})

	t.Run("dangling report id", func(t *testing.T) {
		f := newFixture(t)
		s := &model.Schedule{
			PatientID:     "P2",
			ProcedureCode: "US-ABD",
			Status:        model.ScheduleStatusPending,
			CreatedAt:     day,
			ReportID:      model.NewID(),
		}
		require.NoError(t, f.store.Schedules.Create(ctx, s))

		deleted, err := f.svc.DeleteByScheduleID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, deleted.ID)

		reports, err := f.store.Reports.FindByIDs(ctx, []string{f.report.ID})
		require.NoError(t, err)
		assert.Len(t, reports, 1)
	})

	t.Run("missing schedule", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.DeleteByScheduleID(ctx, model.NewID())
		assert.True(t, apperrors.IsNotFound(err))

		reports, err := f.store.Reports.FindByIDs(ctx, []string{f.report.ID})
		require.NoError(t, err)
		assert.Len(t, reports, 1)
	})
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.byCode["CT-HEAD"]

	deleted, err := f.svc.DeleteByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, deleted.ID)

	reports, err := f.store.Reports.FindByIDs(ctx, []string{f.report.ID})
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	_, err = f.svc.DeleteByID(ctx, s.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
