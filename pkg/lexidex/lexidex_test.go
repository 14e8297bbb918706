package lexidex

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFacade(t *testing.T) *Facade {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Storage.Path = ""
	f, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func fp(v float64) *float64 { return &v }

func TestCreateIndexThenIndexAndSearchRoundTrip(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()

	err := f.CreateIndex(ctx, "docs", map[string]FieldOptions{
		"title":   {Boost: 3.0, Store: true, Index: true},
		"content": {Boost: 1.0, Store: true, Index: true},
	})
	require.NoError(t, err)

	failed, err := f.Index(ctx, "docs",
		Document{ID: "exact", Content: map[string]any{"title": "Acme Corp", "content": "a company"}},
		Document{ID: "partial", Content: map[string]any{"title": "Acme Corporation Global Holdings", "content": "a company"}},
	)
	require.NoError(t, err)
	require.Empty(t, failed)

	results, err := f.Search(ctx, "docs", "Acme Corp", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results.Results, 2)
	assert.Equal(t, "exact", results.Results[0].ID)
	assert.Greater(t, results.Results[0].Score, results.Results[1].Score)
}

func TestSearchFuzzyRecallsHeavyTypo(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "docs", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	_, err := f.Index(ctx, "docs",
		Document{ID: "a", Content: map[string]any{"content": "a red widget for sale"}},
		Document{ID: "b", Content: map[string]any{"content": "an unrelated gadget"}},
	)
	require.NoError(t, err)

	results, err := f.Search(ctx, "docs", "widgit", SearchOptions{Fuzzy: true, Fuzziness: 0.5, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, results.Results)
	assert.Equal(t, "a", results.Results[0].ID)
	assert.True(t, results.Results[0].FuzzyMatched)
}

func TestSearchMetadataPredicateFiltersByPriceRange(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "docs", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	_, err := f.Index(ctx, "docs",
		Document{ID: "cheap", Content: map[string]any{"content": "a widget"}, Metadata: map[string]any{"price": 10.0}},
		Document{ID: "pricey", Content: map[string]any{"content": "a widget"}, Metadata: map[string]any{"price": 500.0}},
	)
	require.NoError(t, err)

	results, err := f.Search(ctx, "docs", "widget", SearchOptions{
		Filters: []Predicate{{FieldPath: "metadata.price", Operator: "<=", Value: 100.0}},
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, results.Results, 1)
	assert.Equal(t, "cheap", results.Results[0].ID)
}

func TestSearchGeoNearFiltersByRadius(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "docs", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	_, err := f.Index(ctx, "docs",
		Document{ID: "portland", Content: map[string]any{"content": "coffee shop"}, Lat: fp(45.5152), Lng: fp(-122.6784)},
		Document{ID: "seattle", Content: map[string]any{"content": "coffee shop"}, Lat: fp(47.6062), Lng: fp(-122.3321)},
	)
	require.NoError(t, err)

	results, err := f.Search(ctx, "docs", "coffee", SearchOptions{
		Near:  &GeoNear{Lat: 45.5152, Lng: -122.6784, RadiusMeters: 50000},
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, results.Results, 1)
	assert.Equal(t, "portland", results.Results[0].ID)
}

func TestSearchFacetsCountCategories(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "docs", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	_, err := f.Index(ctx, "docs",
		Document{ID: "a", Content: map[string]any{"content": "widget"}, Metadata: map[string]any{"category": "tools"}},
		Document{ID: "b", Content: map[string]any{"content": "widget"}, Metadata: map[string]any{"category": "tools"}},
		Document{ID: "c", Content: map[string]any{"content": "widget"}, Metadata: map[string]any{"category": "toys"}},
	)
	require.NoError(t, err)

	results, err := f.Search(ctx, "docs", "widget", SearchOptions{
		Facets: map[string]FacetOptions{"category": {}},
		Limit:  10,
	})
	require.NoError(t, err)
	require.Contains(t, results.Facets, "category")
	assert.Equal(t, FacetValue{Value: "tools", Count: 2}, results.Facets["category"][0])
}

func TestSearchMultipleMergesAcrossIndicesWithIndexAnnotation(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "alpha", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	require.NoError(t, f.CreateIndex(ctx, "beta", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	_, err := f.Index(ctx, "alpha", Document{ID: "x", Content: map[string]any{"content": "widget alpha"}})
	require.NoError(t, err)
	_, err = f.Index(ctx, "beta", Document{ID: "x", Content: map[string]any{"content": "widget gamma"}})
	require.NoError(t, err)

	results, err := f.SearchMultiple(ctx, []string{"alpha", "beta"}, "widget", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results.Results, 2)
	assert.Equal(t, "alpha", results.Results[0].Index)
	assert.Equal(t, "beta", results.Results[1].Index)
}

func TestSearchMultipleExpandsWildcardPattern(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "shard_1", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	require.NoError(t, f.CreateIndex(ctx, "shard_2", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	require.NoError(t, f.CreateIndex(ctx, "other", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	_, err := f.Index(ctx, "shard_1", Document{ID: "a", Content: map[string]any{"content": "widget"}})
	require.NoError(t, err)
	_, err = f.Index(ctx, "shard_2", Document{ID: "b", Content: map[string]any{"content": "widget"}})
	require.NoError(t, err)
	_, err = f.Index(ctx, "other", Document{ID: "c", Content: map[string]any{"content": "widget"}})
	require.NoError(t, err)

	results, err := f.SearchMultiple(ctx, []string{"shard_*"}, "widget", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results.Results, 2)
	for _, row := range results.Results {
		assert.True(t, strings.HasPrefix(row.Index, "shard_"))
	}
}

func TestSearchOnUnknownIndexReturnsEmptyResults(t *testing.T) {
	f := newFacade(t)
	results, err := f.Search(context.Background(), "nonexistent", "widget", SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, results.Results)
	assert.Equal(t, 0, results.Total)
}

func TestDeleteOnUnknownIndexIsNoop(t *testing.T) {
	f := newFacade(t)
	n, err := f.Delete(context.Background(), "nonexistent", "doc1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCreateIndexConflictReturnsStableErrorCode(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "docs", map[string]FieldOptions{"title": {Boost: 1.0, Store: true, Index: true}}))

	err := f.CreateIndex(ctx, "docs", map[string]FieldOptions{"body": {Boost: 1.0, Store: true, Index: true}})
	require.Error(t, err)

	var lexErr *Error
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, "INDEX_EXISTS_CONFLICT", lexErr.Code)
}

func TestIndexAutoCreatesUnknownIndex(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	failed, err := f.Index(ctx, "fresh", Document{ID: "a", Content: map[string]any{"content": "hello world"}})
	require.NoError(t, err)
	require.Empty(t, failed)

	results, err := f.Search(ctx, "fresh", "hello", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results.Results, 1)
}

func TestUpdateRequiresID(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "docs", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))

	err := f.Update(ctx, "docs", Document{Content: map[string]any{"content": "no id"}})
	require.Error(t, err)

	var lexErr *Error
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, "MISSING_ID", lexErr.Code)
}

func TestClearRemovesDocumentsButKeepsIndex(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "docs", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	_, err := f.Index(ctx, "docs", Document{ID: "a", Content: map[string]any{"content": "widget"}})
	require.NoError(t, err)

	require.NoError(t, f.Clear(ctx, "docs"))

	results, err := f.Search(ctx, "docs", "widget", SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, results.Results)
}

func TestSuggestReturnsCandidateForTypo(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "docs", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	_, err := f.Index(ctx, "docs", Document{ID: "a", Content: map[string]any{"content": "widget gadget gizmo"}})
	require.NoError(t, err)

	suggestions, err := f.Suggest(ctx, "docs", "widgt", 5)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "widget", suggestions[0].Text)
}

func TestListIndicesAndGetStats(t *testing.T) {
	f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.CreateIndex(ctx, "docs", map[string]FieldOptions{"content": {Boost: 1.0, Store: true, Index: true}}))
	_, err := f.Index(ctx, "docs", Document{ID: "a", Content: map[string]any{"content": "widget"}})
	require.NoError(t, err)

	summaries, err := f.ListIndices(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "docs", summaries[0].Name)

	stats, err := f.GetStats(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
}
