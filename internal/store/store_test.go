package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/lexidex/internal/geo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", CacheConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func analyzeIdentity(doc Document) map[string]string {
	out := make(map[string]string, len(doc.Content))
	for k, v := range doc.Content {
		if s, ok := v.(string); ok {
			out[k] = strings.ToLower(s)
		}
	}
	return out
}

func TestCreateIndexAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateIndex(ctx, "widgets", IndexOptions{Fields: DefaultFields()}))
	assert.True(t, s.HasIndex("widgets"))

	doc := Document{
		ID:        "doc1",
		Content:   map[string]any{"content": "a red widget for sale"},
		Metadata:  map[string]any{"brand": "acme"},
		Language:  "en",
		Type:      "default",
		Timestamp: 100,
	}
	_, err := s.WriteBatch(ctx, "widgets", []Document{doc}, analyzeIdentity)
	require.NoError(t, err)

	rows, err := s.Search(ctx, "widgets", QuerySpec{MatchExpr: "widget"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "doc1", rows[0].ExtID)
	assert.Equal(t, "acme", rows[0].Metadata["brand"])
	assert.Equal(t, "a red widget for sale", rows[0].Content["content"])
}

func TestCreateIndexConflictOnDifferentFieldSet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateIndex(ctx, "docs", IndexOptions{Fields: DefaultFields()}))
	err := s.CreateIndex(ctx, "docs", IndexOptions{Fields: map[string]Field{
		"title": {Name: "title", Boost: 3, Store: true, Index: true},
	}})
	require.Error(t, err)
}

func TestDeleteRemovesDocAndChunks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex(ctx, "arts", IndexOptions{Fields: DefaultFields()}))

	parent := Document{ID: "p1", Content: map[string]any{"content": "parent body"}, Metadata: map[string]any{"chunked": true}}
	chunk := Document{ID: "p1#chunk0", Content: map[string]any{"content": "chunk body"}, Metadata: map[string]any{"is_chunk": true, "parent_id": "p1"}}
	_, err := s.WriteBatch(ctx, "arts", []Document{parent, chunk}, analyzeIdentity)
	require.NoError(t, err)

	statsBefore, err := s.Stats(ctx, "arts")
	require.NoError(t, err)
	assert.Equal(t, 2, statsBefore.DocumentCount)

	n, err := s.Delete(ctx, "arts", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	statsAfter, err := s.Stats(ctx, "arts")
	require.NoError(t, err)
	assert.Equal(t, 0, statsAfter.DocumentCount)

	rows, err := s.Search(ctx, "arts", QuerySpec{MatchExpr: "parent OR chunk"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateReplacesRowByExtID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex(ctx, "u", IndexOptions{Fields: DefaultFields()}))

	doc := Document{ID: "x", Content: map[string]any{"content": "old value"}}
	_, err := s.WriteBatch(ctx, "u", []Document{doc}, analyzeIdentity)
	require.NoError(t, err)

	doc.Content["content"] = "new value"
	_, err = s.WriteBatch(ctx, "u", []Document{doc}, analyzeIdentity)
	require.NoError(t, err)

	stats, err := s.Stats(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)

	rows, err := s.Search(ctx, "u", QuerySpec{MatchExpr: "new"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = s.Search(ctx, "u", QuerySpec{MatchExpr: "old"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMetadataPredicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex(ctx, "priced", IndexOptions{Fields: DefaultFields()}))

	docs := []Document{
		{ID: "a", Content: map[string]any{"content": "item a"}, Metadata: map[string]any{"price": 150.0}},
		{ID: "b", Content: map[string]any{"content": "item b"}, Metadata: map[string]any{"price": 299.99, "brand": "acme"}},
		{ID: "c", Content: map[string]any{"content": "item c"}, Metadata: map[string]any{"price": 750.0, "brand": "acme"}},
	}
	_, err := s.WriteBatch(ctx, "priced", docs, analyzeIdentity)
	require.NoError(t, err)

	under500, err := s.Search(ctx, "priced", QuerySpec{
		MatchExpr:  "item",
		Predicates: []Predicate{{FieldPath: "metadata.price", Operator: "<", Value: 500.0}},
	})
	require.NoError(t, err)
	assert.Len(t, under500, 2)

	inSet, err := s.Search(ctx, "priced", QuerySpec{
		MatchExpr:  "item",
		Predicates: []Predicate{{FieldPath: "metadata.price", Operator: "in", Value: []any{299.99, 750.0}}},
	})
	require.NoError(t, err)
	assert.Len(t, inSet, 2)

	hasBrand, err := s.Search(ctx, "priced", QuerySpec{
		MatchExpr:  "item",
		Predicates: []Predicate{{FieldPath: "metadata.brand", Operator: "exists"}},
	})
	require.NoError(t, err)
	assert.Len(t, hasBrand, 2)
}

func TestGeoNearFiltersByRadius(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex(ctx, "places", IndexOptions{Fields: DefaultFields()}))

	portland := geo.Point{Lat: 45.5152, Lng: -122.6784}
	seattle := geo.Point{Lat: 47.6062, Lng: -122.3321}

	docs := []Document{
		{ID: "pdx", Content: map[string]any{"content": "city hall"}, GeoPoint: &portland},
		{ID: "sea", Content: map[string]any{"content": "city hall"}, GeoPoint: &seattle},
	}
	_, err := s.WriteBatch(ctx, "places", docs, analyzeIdentity)
	require.NoError(t, err)

	close, err := s.Search(ctx, "places", QuerySpec{
		MatchExpr: "city",
		GeoNear:   &GeoNear{Point: portland, Radius: 10000},
	})
	require.NoError(t, err)
	require.Len(t, close, 1)
	assert.Equal(t, "pdx", close[0].ExtID)

	wide, err := s.Search(ctx, "places", QuerySpec{
		MatchExpr: "city",
		GeoNear:   &GeoNear{Point: portland, Radius: 300000},
	})
	require.NoError(t, err)
	assert.Len(t, wide, 2)
	for _, r := range wide {
		require.NotNil(t, r.Distance)
		assert.LessOrEqual(t, *r.Distance, 300000.0)
	}
}

func TestListIndicesReportsLanguagesAndTypes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex(ctx, "mixed", IndexOptions{Fields: DefaultFields()}))

	docs := []Document{
		{ID: "1", Content: map[string]any{"content": "a"}, Language: "en", Type: "post"},
		{ID: "2", Content: map[string]any{"content": "b"}, Language: "fr", Type: "post"},
	}
	_, err := s.WriteBatch(ctx, "mixed", docs, analyzeIdentity)
	require.NoError(t, err)

	summaries, err := s.ListIndices(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].DocumentCount)
	assert.ElementsMatch(t, []string{"en", "fr"}, summaries[0].Languages)
	assert.ElementsMatch(t, []string{"post"}, summaries[0].Types)
}

func TestDropIndexRemovesAllState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex(ctx, "gone", IndexOptions{Fields: DefaultFields()}))
	require.NoError(t, s.DropIndex(ctx, "gone"))
	assert.False(t, s.HasIndex("gone"))

	err := s.DropIndex(ctx, "gone")
	require.Error(t, err)
}

func TestMultiSearchTagsIndex(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex(ctx, "en_posts", IndexOptions{Fields: DefaultFields()}))
	require.NoError(t, s.CreateIndex(ctx, "fr_posts", IndexOptions{Fields: DefaultFields()}))

	_, err := s.WriteBatch(ctx, "en_posts", []Document{{ID: "1", Content: map[string]any{"content": "renaissance art"}}}, analyzeIdentity)
	require.NoError(t, err)
	_, err = s.WriteBatch(ctx, "fr_posts", []Document{{ID: "2", Content: map[string]any{"content": "renaissance art"}}}, analyzeIdentity)
	require.NoError(t, err)

	merged, err := s.MultiSearch(ctx, []string{"en_posts", "fr_posts"}, QuerySpec{MatchExpr: "renaissance"})
	require.NoError(t, err)
	require.Len(t, merged, 2)
	indices := []string{merged[0].Index, merged[1].Index}
	assert.ElementsMatch(t, []string{"en_posts", "fr_posts"}, indices)
}

func TestMatchIndexPatternExpandsGlob(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex(ctx, "en_posts", IndexOptions{Fields: DefaultFields()}))
	require.NoError(t, s.CreateIndex(ctx, "fr_posts", IndexOptions{Fields: DefaultFields()}))
	require.NoError(t, s.CreateIndex(ctx, "other", IndexOptions{Fields: DefaultFields()}))

	matched := s.MatchIndexPattern("*_posts")
	assert.ElementsMatch(t, []string{"en_posts", "fr_posts"}, matched)
}

func TestTermsViewReturnsVocabulary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex(ctx, "vocab", IndexOptions{Fields: DefaultFields()}))

	docs := []Document{
		{ID: "1", Content: map[string]any{"content": "apple banana"}},
		{ID: "2", Content: map[string]any{"content": "apple cherry"}},
	}
	_, err := s.WriteBatch(ctx, "vocab", docs, analyzeIdentity)
	require.NoError(t, err)

	terms, err := s.Terms(ctx, "vocab", 1, 100)
	require.NoError(t, err)
	found := map[string]int{}
	for _, tf := range terms {
		found[tf.Term] = tf.DocCount
	}
	assert.Equal(t, 2, found["apple"])
	assert.Equal(t, 1, found["banana"])
}
