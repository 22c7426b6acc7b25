package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
)

func TestDeviceConfigRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDeviceConfigRepository(NewDB())

	id := model.NewID()
	cfg := &model.DeviceConfig{ID: strings.ToUpper(id), Weight: 1, Fields: map[string]interface{}{"name": "A"}}
	require.NoError(t, repo.Create(ctx, cfg))
	assert.Equal(t, id, cfg.ID)

	// Callers cannot mutate stored entries through returned values.
	got, err := repo.Get(ctx, strings.ToUpper(id))
	require.NoError(t, err)
	got.Fields["name"] = "changed"
	again, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Fields["name"])

	again.Weight = 5
	require.NoError(t, repo.Save(ctx, again))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, float64(5), list[0].Weight)

	assert.ErrorIs(t, repo.Save(ctx, &model.DeviceConfig{ID: model.NewID()}), repository.ErrNotFound)
	_, err = repo.Get(ctx, "xyz")
	assert.ErrorIs(t, err, model.ErrInvalidID)

	require.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), repository.ErrNotFound)
}

func TestScheduleRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository(NewDB())
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, code := range []string{"CT-HEAD", "MR-KNEE", "CT-CHEST"} {
		require.NoError(t, repo.Create(ctx, &model.Schedule{
			PatientID:     "P1",
			ProcedureCode: code,
			CreatedAt:     base.Add(time.Duration(i) * 24 * time.Hour),
		}))
	}

	n, err := repo.Count(ctx, &model.ScheduleFilter{Search: "^CT"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.Count(ctx, &model.ScheduleFilter{DateRange: &model.DateRange{From: base, To: base.Add(24 * time.Hour)}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	found, err := repo.Find(ctx, nil, &model.FindOptions{Sort: "procedureCode", Desc: true, Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "CT-HEAD", found[0].ProcedureCode)

	_, err = repo.Count(ctx, &model.ScheduleFilter{Search: "["})
	assert.Error(t, err)

	updated, err := repo.Update(ctx, found[0].ID, map[string]interface{}{"status": "done", "room": "B2"})
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatus("done"), updated.Status)
	assert.Equal(t, "B2", updated.Fields["room"])
	assert.True(t, found[0].CreatedAt.Equal(updated.CreatedAt))

	deleted, err := repo.Delete(ctx, found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, found[0].ID, deleted.ID)
	_, err = repo.Get(ctx, found[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReportAndPatientRepositories(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	reports := NewReportRepository(db)
	patients := NewPatientRepository(db)

	rep := &model.Report{Status: "done"}
	require.NoError(t, reports.Create(ctx, rep))

	found, err := reports.FindByIDs(ctx, []string{strings.ToUpper(rep.ID)})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = reports.FindByIDs(ctx, []string{"bad"})
	assert.ErrorIs(t, err, model.ErrInvalidID)

	ok, err := reports.Delete(ctx, rep.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = reports.Delete(ctx, rep.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, patients.Create(ctx, &model.Patient{ID: "P1"}))
	require.NoError(t, patients.Create(ctx, &model.Patient{ID: "P2"}))
	ps, err := patients.FindByPatientIDs(ctx, []string{"P2", "P9"})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "P2", ps[0].ID)
	assert.NotEmpty(t, ps[0].ObjectID)
}
