package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowsWithMetadata(values ...map[string]any) []ResultRow {
	rows := make([]ResultRow, len(values))
	for i, v := range values {
		rows[i] = ResultRow{ID: string(rune('a' + i)), Metadata: v}
	}
	return rows
}

func TestComputeFacetsCountsByValue(t *testing.T) {
	rows := rowsWithMetadata(
		map[string]any{"category": "electronics"},
		map[string]any{"category": "electronics"},
		map[string]any{"category": "books"},
	)
	facets := ComputeFacets(rows, map[string]FacetOptions{"category": {}})
	values := facets["category"]
	assert.Equal(t, FacetValue{Value: "electronics", Count: 2}, values[0])
	assert.Equal(t, FacetValue{Value: "books", Count: 1}, values[1])
}

func TestComputeFacetsHonoursMinCountAndLimit(t *testing.T) {
	rows := rowsWithMetadata(
		map[string]any{"category": "a"},
		map[string]any{"category": "a"},
		map[string]any{"category": "b"},
	)
	facets := ComputeFacets(rows, map[string]FacetOptions{"category": {MinCount: 2, Limit: 1}})
	assert.Len(t, facets["category"], 1)
	assert.Equal(t, "a", facets["category"][0].Value)
}

func TestComputeAggregationsSumAvgMinMax(t *testing.T) {
	rows := rowsWithMetadata(
		map[string]any{"price": 10.0},
		map[string]any{"price": 20.0},
		map[string]any{"price": 30.0},
	)
	aggs := map[string]AggregationSpec{
		"total": {Type: "sum", Field: "price"},
		"mean":  {Type: "avg", Field: "price"},
		"low":   {Type: "min", Field: "price"},
		"high":  {Type: "max", Field: "price"},
		"n":     {Type: "count", Field: "price"},
	}
	out := ComputeAggregations(rows, aggs)
	assert.Equal(t, 60.0, out["total"])
	assert.Equal(t, 20.0, out["mean"])
	assert.Equal(t, 10.0, out["low"])
	assert.Equal(t, 30.0, out["high"])
	assert.Equal(t, 3.0, out["n"])
}

func TestExtractPathNested(t *testing.T) {
	m := map[string]any{"a": map[string]any{"b": "value"}}
	v, ok := extractPath(m, "a.b")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = extractPath(m, "a.missing")
	assert.False(t, ok)
}
