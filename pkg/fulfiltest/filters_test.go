package fulfiltest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	row := map[string]interface{}{
		"state":     "draft",
		"amount":    float64(12.5),
		"warehouse": float64(3),
		"on_hold":   true,
		"reference": "SO-Toronto-1",
	}

	tests := []struct {
		name     string
		filter   []interface{}
		expected bool
	}{
		{name: "equal string", filter: []interface{}{"state", "=", "draft"}, expected: true},
		{name: "equal number across types", filter: []interface{}{"warehouse", "=", 3}, expected: true},
		{name: "equal boolean", filter: []interface{}{"on_hold", "=", true}, expected: true},
		{name: "missing field equals nil", filter: []interface{}{"carrier", "=", nil}, expected: true},
		{name: "not equal", filter: []interface{}{"state", "!=", "draft"}, expected: false},
		{name: "in", filter: []interface{}{"state", "in", []interface{}{"done", "draft"}}, expected: true},
		{name: "not in", filter: []interface{}{"state", "not in", []interface{}{"done", "draft"}}, expected: false},
		{name: "greater", filter: []interface{}{"amount", ">", 10}, expected: true},
		{name: "less or equal", filter: []interface{}{"amount", "<=", 12.5}, expected: true},
		{name: "less on missing", filter: []interface{}{"carrier", "<", 1}, expected: false},
		{name: "like prefix", filter: []interface{}{"reference", "like", "SO-%"}, expected: true},
		{name: "like is case sensitive", filter: []interface{}{"reference", "like", "%toronto%"}, expected: false},
		{name: "ilike folds case", filter: []interface{}{"reference", "ilike", "%toronto%"}, expected: true},
		{name: "operator case", filter: []interface{}{"state", "IN", []interface{}{"draft"}}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			matched, err := matchAll(row, []interface{}{tt.filter})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, matched)
		})
	}
}

func TestMatch_Errors(t *testing.T) {
	t.Parallel()

	row := map[string]interface{}{"state": "draft"}

	_, err := matchAll(row, []interface{}{"state"})
	require.ErrorIs(t, err, ErrInvalidCondition)

	_, err = matchAll(row, []interface{}{[]interface{}{1, "=", "x"}})
	require.ErrorIs(t, err, ErrInvalidCondition)

	_, err = matchAll(row, []interface{}{[]interface{}{"state", "in", "draft"}})
	require.ErrorIs(t, err, ErrListExpected)

	_, err = matchAll(row, []interface{}{[]interface{}{"state", "~", "draft"}})
	require.ErrorIs(t, err, ErrUnsupportedOperator)
}
