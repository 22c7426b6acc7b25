package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Score float64  `json:"score"`
	Tags  []string `json:"tags,omitempty"`
}

func TestLookup(t *testing.T) {
	doc := map[string]interface{}{
		"name": "ct",
		"patient": map[string]interface{}{
			"name": "Wang",
		},
	}

	v, ok := Lookup(doc, "patient.name")
	assert.True(t, ok)
	assert.Equal(t, "Wang", v)

	_, ok = Lookup(doc, "patient.age")
	assert.False(t, ok)

	_, ok = Lookup(doc, "name.first")
	assert.False(t, ok)

	_, ok = Lookup(nil, "name")
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	s := &sample{Name: "a", Score: 1, Tags: []string{"x"}}

	require.NoError(t, Merge(s, map[string]interface{}{"score": 3}))
	assert.Equal(t, "a", s.Name)
	assert.Equal(t, float64(3), s.Score)
	assert.Equal(t, []string{"x"}, s.Tags)

	err := Merge(s, map[string]interface{}{"score": "high"})
	assert.Error(t, err)
}

func TestWithout(t *testing.T) {
	in := map[string]interface{}{"_id": "1", "weight": 2}
	out := Without(in, "_id")

	assert.Equal(t, map[string]interface{}{"weight": 2}, out)
	assert.Contains(t, in, "_id")
}

func TestInline(t *testing.T) {
	raw, err := MarshalInline(
		map[string]interface{}{"_id": "1"},
		map[string]interface{}{"_id": "shadowed", "aeTitle": "PACS1"},
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"1","aeTitle":"PACS1"}`, string(raw))

	var known struct {
		ID string `json:"_id"`
	}
	extra, err := UnmarshalInline(raw, &known, "_id")
	require.NoError(t, err)
	assert.Equal(t, "1", known.ID)
	assert.Equal(t, map[string]interface{}{"aeTitle": "PACS1"}, extra)

	extra, err = UnmarshalInline([]byte(`{"_id":"2"}`), &known, "_id")
	require.NoError(t, err)
	assert.Nil(t, extra)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b interface{}
		want int
	}{
		{"null before number", nil, 1.0, -1},
		{"numbers", 2.0, 10, -1},
		{"equal numbers", int64(3), 3.0, 0},
		{"number before string", 100.0, "1", -1},
		{"strings", "b", "a", 1},
		{"timestamps as instants", "2024-01-02T00:00:00+08:00", "2024-01-01T20:00:00Z", -1},
		{"bools", false, true, -1},
		{"times", time.Unix(10, 0), time.Unix(5, 0), 1},
		{"arrays", []interface{}{1.0, 2.0}, []interface{}{1.0, 3.0}, -1},
		{"shorter array first", []interface{}{1.0}, []interface{}{1.0, 0.0}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestSortStable(t *testing.T) {
	items := []sample{
		{Name: "c", Score: 2},
		{Name: "a", Score: 1},
		{Name: "b", Score: 2},
		{Name: "d"},
	}
	toDoc := func(s sample) (map[string]interface{}, error) { return ToMap(s) }

	require.NoError(t, SortStable(items, "score", false, toDoc))
	assert.Equal(t, []string{"d", "a", "c", "b"}, names(items))

	require.NoError(t, SortStable(items, "score", true, toDoc))
	assert.Equal(t, []string{"c", "b", "a", "d"}, names(items))

	require.NoError(t, SortStable(items, "", false, toDoc))
	assert.Equal(t, []string{"c", "b", "a", "d"}, names(items))
}

func names(items []sample) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.Name)
	}
	return out
}
