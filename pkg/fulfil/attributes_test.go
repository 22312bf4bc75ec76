package fulfil_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignAttribute_DottedPathRoundTrip(t *testing.T) {
	t.Parallel()

	tree := fulfil.AssignAttribute(nil, "a.b.c", "value")

	got, ok := fulfil.Dig(tree, "a.b.c")
	require.True(t, ok)
	assert.Equal(t, "value", got)

	intermediate, ok := fulfil.Dig(tree, "a.b")
	require.True(t, ok)
	assert.IsType(t, map[string]any{}, intermediate)
}

func TestAssignAttribute_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	original := fulfil.Attributes{"warehouse": map[string]any{"id": 1}}
	updated := fulfil.AssignAttribute(original, "warehouse.name", "Toronto")

	assert.Equal(t, fulfil.Attributes{"warehouse": map[string]any{"id": 1}}, original)
	assert.Equal(t, fulfil.Attributes{"warehouse": map[string]any{"id": 1, "name": "Toronto"}}, updated)
}

func TestAssignAttributes_NestedRelationCollapse(t *testing.T) {
	t.Parallel()

	expected := fulfil.Attributes{
		"warehouse": map[string]any{"id": int64(10), "name": "Toronto"},
	}

	t.Run("id first", func(t *testing.T) {
		t.Parallel()

		tree := fulfil.AssignPairs(nil,
			fulfil.Pair{Name: "warehouse", Value: 10},
			fulfil.Pair{Name: "warehouse.name", Value: "Toronto"},
		)

		assert.Equal(t, expected, tree)
	})

	t.Run("expanded record first", func(t *testing.T) {
		t.Parallel()

		tree := fulfil.AssignPairs(nil,
			fulfil.Pair{Name: "warehouse.name", Value: "Toronto"},
			fulfil.Pair{Name: "warehouse", Value: 10},
		)

		assert.Equal(t, expected, tree)
	})

	t.Run("mapping", func(t *testing.T) {
		t.Parallel()

		tree := fulfil.AssignAttributes(nil, map[string]any{"warehouse": 10, "warehouse.name": "Toronto"})

		assert.Equal(t, expected, tree)
	})
}

func TestAssignAttributes_InterleavedSiblings(t *testing.T) {
	t.Parallel()

	first := fulfil.AssignPairs(nil,
		fulfil.Pair{Name: "warehouse.name", Value: "Toronto"},
		fulfil.Pair{Name: "warehouse", Value: 10},
		fulfil.Pair{Name: "warehouse.code", Value: "TOR"},
	)
	second := fulfil.AssignPairs(nil,
		fulfil.Pair{Name: "warehouse.code", Value: "TOR"},
		fulfil.Pair{Name: "warehouse.name", Value: "Toronto"},
		fulfil.Pair{Name: "warehouse", Value: 10},
	)
	third := fulfil.AssignPairs(nil,
		fulfil.Pair{Name: "warehouse", Value: 10},
		fulfil.Pair{Name: "warehouse.code", Value: "TOR"},
		fulfil.Pair{Name: "warehouse.name", Value: "Toronto"},
	)

	expected := fulfil.Attributes{
		"warehouse": map[string]any{"id": int64(10), "name": "Toronto", "code": "TOR"},
	}

	assert.Equal(t, expected, first)
	assert.Equal(t, expected, second)
	assert.Equal(t, expected, third)
}

func TestAssignAttributes_RelationReference(t *testing.T) {
	t.Parallel()

	tree := fulfil.AssignPairs(nil,
		fulfil.Pair{Name: "shipment", Value: "stock.shipment.out,10"},
		fulfil.Pair{Name: "shipment.number", Value: "CS10"},
	)

	assert.Equal(t, fulfil.Attributes{
		"shipment": map[string]any{"id": int64(10), "number": "CS10"},
	}, tree)
}

func TestAssignAttributes_ReferenceLeafStaysString(t *testing.T) {
	t.Parallel()

	tree := fulfil.AssignPairs(nil,
		fulfil.Pair{Name: "shipment.origin", Value: "sale.sale,1"},
		fulfil.Pair{Name: "shipment", Value: 10},
	)

	assert.Equal(t, fulfil.Attributes{
		"shipment": map[string]any{"id": int64(10), "origin": "sale.sale,1"},
	}, tree)
}

func TestAssignAttributes_ExpandedRecordOverwritesID(t *testing.T) {
	t.Parallel()

	tree := fulfil.AssignAttributes(nil, map[string]any{"warehouse": 10, "warehouse.name": "Toronto"})
	tree = fulfil.AssignAttribute(tree, "warehouse", map[string]any{"id": 15})

	assert.Equal(t, fulfil.Attributes{
		"warehouse": map[string]any{"id": 15, "name": "Toronto"},
	}, tree)
}

func TestAssignAttributes_PlainStringDoesNotCollapse(t *testing.T) {
	t.Parallel()

	tree := fulfil.AssignPairs(nil,
		fulfil.Pair{Name: "warehouse.name", Value: "Toronto"},
		fulfil.Pair{Name: "warehouse", Value: "Main"},
	)

	assert.Equal(t, fulfil.Attributes{"warehouse": "Main"}, tree)
}

func TestAssignAttribute_CastsTaggedLeaves(t *testing.T) {
	t.Parallel()

	tree := fulfil.AssignAttribute(nil, "lines", []any{
		map[string]any{"planned_date": map[string]any{"__class__": "date", "iso_string": "2024-01-02"}},
	})

	lines, ok := tree["lines"].([]any)
	require.True(t, ok)
	require.Len(t, lines, 1)

	line, ok := lines[0].(map[string]any)
	require.True(t, ok)

	planned, ok := line["planned_date"].(time.Time)
	require.True(t, ok)
	assert.True(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Equal(planned))
}

func TestAssignAttribute_NormalizesJSONNumbers(t *testing.T) {
	t.Parallel()

	tree := fulfil.AssignPairs(nil,
		fulfil.Pair{Name: "quantity", Value: json.Number("3")},
		fulfil.Pair{Name: "weight", Value: json.Number("1.5")},
	)

	assert.Equal(t, fulfil.Attributes{"quantity": int64(3), "weight": 1.5}, tree)
}

func TestRelationID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		id    int64
		ok    bool
	}{
		{name: "int", value: 10, id: 10, ok: true},
		{name: "int64", value: int64(11), id: 11, ok: true},
		{name: "uint32", value: uint32(12), id: 12, ok: true},
		{name: "integral float", value: 13.0, id: 13, ok: true},
		{name: "fractional float", value: 13.5, ok: false},
		{name: "json number", value: json.Number("14"), id: 14, ok: true},
		{name: "reference", value: "stock.shipment.out,15", id: 15, ok: true},
		{name: "single segment reference", value: "party,16", id: 16, ok: true},
		{name: "numeric string", value: "17", ok: false},
		{name: "reference without id", value: "sale.sale,", ok: false},
		{name: "bool", value: true, ok: false},
		{name: "nil", value: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, ok := fulfil.RelationID(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestDig_MissingPath(t *testing.T) {
	t.Parallel()

	tree := fulfil.Attributes{"warehouse": map[string]any{"name": "Toronto"}, "state": "draft"}

	_, ok := fulfil.Dig(tree, "warehouse.code")
	assert.False(t, ok)

	_, ok = fulfil.Dig(tree, "state.name")
	assert.False(t, ok)
}
