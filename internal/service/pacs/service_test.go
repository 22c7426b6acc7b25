package pacs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository/memory"
	apperrors "github.com/luckypig3400/NEC-Backend/pkg/errors"
)

type recorder struct {
	events []model.EventType
}

func (r *recorder) Emit(_ context.Context, t model.EventType, _ string, _ interface{}) {
	r.events = append(r.events, t)
}

func setup(t *testing.T) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewService(memory.NewDeviceConfigRepository(memory.NewDB()), rec), rec
}

func insert(t *testing.T, svc *Service, name string, weight float64) *model.DeviceConfig {
	t.Helper()
	cfg, err := svc.Insert(context.Background(), &model.DeviceConfig{
		Weight: weight,
		Fields: map[string]interface{}{"name": name},
	})
	require.NoError(t, err)
	require.NotEmpty(t, cfg.ID)
	return cfg
}

func listNames(t *testing.T, svc *Service) []string {
	t.Helper()
	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(len(list.Results)), list.Count)

	names := make([]string, 0, len(list.Results))
	for _, c := range list.Results {
		names = append(names, c.Fields["name"].(string))
	}
	return names
}

func TestList(t *testing.T) {
	t.Run("ordered by weight", func(t *testing.T) {
		svc, _ := setup(t)
		insert(t, svc, "A", 3)
		insert(t, svc, "B", 1)
		insert(t, svc, "C", 2)

		assert.Equal(t, []string{"B", "C", "A"}, listNames(t, svc))
	})

	t.Run("equal weights keep insertion order", func(t *testing.T) {
		svc, _ := setup(t)
		insert(t, svc, "A", 1)
		insert(t, svc, "B", 0)
		insert(t, svc, "C", 1)
		insert(t, svc, "D", 1)

		assert.Equal(t, []string{"B", "A", "C", "D"}, listNames(t, svc))
	})

	t.Run("empty", func(t *testing.T) {
		svc, _ := setup(t)
		list, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, list.Results)
		assert.Zero(t, list.Count)
	})
}

func TestBulkReorder(t *testing.T) {
	ctx := context.Background()

	t.Run("applies weights in order", func(t *testing.T) {
		svc, rec := setup(t)
		a := insert(t, svc, "A", 1)
		b := insert(t, svc, "B", 2)
		c := insert(t, svc, "C", 3)

		list, err := svc.BulkReorder(ctx, []map[string]interface{}{
			{"_id": a.ID, "weight": 3},
			{"_id": b.ID, "weight": 1},
			{"_id": c.ID, "weight": 2, "name": "C2"},
		})
		require.NoError(t, err)
		require.Len(t, list.Results, 3)
		assert.Equal(t, []string{"B", "C2", "A"}, listNames(t, svc))
		assert.Contains(t, rec.events, model.EventPacsReordered)
	})

	t.Run("unknown id stops the batch", func(t *testing.T) {
		svc, _ := setup(t)
		a := insert(t, svc, "A", 1)
		b := insert(t, svc, "B", 2)

		_, err := svc.BulkReorder(ctx, []map[string]interface{}{
			{"_id": a.ID, "weight": 5},
			{"_id": model.NewID(), "weight": 0},
			{"_id": b.ID, "weight": 9},
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))

		got, err := svc.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(5), got.Weight)

		got, err = svc.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(2), got.Weight)
	})

	t.Run("entry without id", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.BulkReorder(ctx, []map[string]interface{}{{"weight": 1}})
		assert.True(t, apperrors.IsBadRequest(err))
	})

	t.Run("malformed id", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.BulkReorder(ctx, []map[string]interface{}{{"_id": "nope", "weight": 1}})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidID)
		assert.False(t, apperrors.IsNotFound(err))
	})
}

func TestPatchOne(t *testing.T) {
	ctx := context.Background()
	svc, rec := setup(t)
	a := insert(t, svc, "A", 1)

	updated, err := svc.PatchOne(ctx, a.ID, map[string]interface{}{
		"_id":     model.NewID(),
		"aeTitle": "PACS1",
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, float64(1), updated.Weight)
	assert.Equal(t, "A", updated.Fields["name"])
	assert.Equal(t, "PACS1", updated.Fields["aeTitle"])
	assert.Equal(t, []model.EventType{model.EventPacsCreated, model.EventPacsUpdated}, rec.events)

	_, err = svc.PatchOne(ctx, model.NewID(), map[string]interface{}{"weight": 2})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.PatchOne(ctx, a.ID, map[string]interface{}{"weight": "heavy"})
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestDeleteOne(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	a := insert(t, svc, "A", 1)
	insert(t, svc, "B", 2)

	deleted, err := svc.DeleteOne(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted.ID)
	assert.Equal(t, []string{"B"}, listNames(t, svc))

	_, err = svc.DeleteOne(ctx, a.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestInsertNil(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Insert(context.Background(), nil)
	assert.True(t, apperrors.IsBadRequest(err))
}
