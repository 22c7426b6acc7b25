package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckypig3400/NEC-Backend/internal/model"
)

func TestScheduleWhere(t *testing.T) {
	where, args := scheduleWhere(nil)
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = scheduleWhere(&model.ScheduleFilter{Search: "CT"})
	assert.Equal(t, " WHERE (procedure_code ~ $1 OR patient_id ~ $1)", where)
	assert.Equal(t, []interface{}{"CT"}, args)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	where, args = scheduleWhere(&model.ScheduleFilter{
		DateRange: &model.DateRange{From: from, To: to},
		Search:    "CT",
	})
	assert.Equal(t, " WHERE created_at BETWEEN $1 AND $2 AND (procedure_code ~ $3 OR patient_id ~ $3)", where)
	assert.Equal(t, []interface{}{from, to, "CT"}, args)
}

func TestScheduleOrder(t *testing.T) {
	t.Run("no options", func(t *testing.T) {
		order, args, err := scheduleOrder(nil, []interface{}{"x"})
		require.NoError(t, err)
		assert.Equal(t, " ORDER BY seq", order)
		assert.Equal(t, []interface{}{"x"}, args)
	})

	t.Run("page after filter arguments", func(t *testing.T) {
		order, args, err := scheduleOrder(&model.FindOptions{
			Sort:  "createdAt",
			Desc:  true,
			Skip:  20,
			Limit: 10,
		}, []interface{}{"CT"})
		require.NoError(t, err)
		assert.Equal(t, " ORDER BY created_at DESC NULLS LAST, seq LIMIT $2 OFFSET $3", order)
		assert.Equal(t, []interface{}{"CT", int64(10), int64(20)}, args)
	})

	t.Run("ascending", func(t *testing.T) {
		order, args, err := scheduleOrder(&model.FindOptions{Sort: "status"}, nil)
		require.NoError(t, err)
		assert.Equal(t, " ORDER BY status ASC NULLS FIRST, seq", order)
		assert.Empty(t, args)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, _, err := scheduleOrder(&model.FindOptions{Sort: "patient.name"}, nil)
		assert.Error(t, err)
	})
}
