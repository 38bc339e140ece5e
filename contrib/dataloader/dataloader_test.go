package dataloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   string
	Name string
}

func rowID(r *row) string { return r.ID }

func TestOrderByKeys(t *testing.T) {
	t.Parallel()

	t.Run("all keys found", func(t *testing.T) {
		t.Parallel()
		keys := []string{"a", "b", "c"}
		values := []*row{{ID: "c", Name: "third"}, {ID: "a", Name: "first"}, {ID: "b", Name: "second"}}

		result, errs := OrderByKeys(keys, values, rowID)

		require.Len(t, result, 3)
		require.Len(t, errs, 3)
		assert.Equal(t, "first", result[0].Name)
		assert.Equal(t, "second", result[1].Name)
		assert.Equal(t, "third", result[2].Name)
		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("some keys missing", func(t *testing.T) {
		t.Parallel()
		keys := []string{"a", "b", "c"}
		values := []*row{{ID: "c", Name: "third"}}

		result, errs := OrderByKeys(keys, values, rowID)

		assert.Nil(t, result[0])
		assert.ErrorIs(t, errs[0], ErrNotFound)
		assert.ErrorIs(t, errs[1], ErrNotFound)
		assert.Equal(t, "third", result[2].Name)
		assert.NoError(t, errs[2])
	})
}

func TestPresent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		keys   []string
		values []*row
		want   []string
	}{
		{name: "empty", keys: nil, values: nil, want: []string{}},
		{name: "reordered", keys: []string{"b", "a"}, values: []*row{{ID: "a"}, {ID: "b"}}, want: []string{"b", "a"}},
		{name: "missing dropped", keys: []string{"x", "a", "y"}, values: []*row{{ID: "a"}}, want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Present(tt.keys, tt.values, rowID)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGroupByKey(t *testing.T) {
	t.Parallel()

	type grant struct{ Calendar, User string }
	grants := []grant{{"c1", "bob"}, {"c2", "carol"}, {"c1", "dave"}}

	grouped := GroupByKey(grants, func(g grant) string { return g.Calendar })

	require.Len(t, grouped, 2)
	assert.Equal(t, []grant{{"c1", "bob"}, {"c1", "dave"}}, grouped["c1"])
	assert.Equal(t, []grant{{"c2", "carol"}}, grouped["c2"])
}
