// Package search implements lexidex's query pipeline: analyze the query
// text, plan fuzzy expansion/correction, ask Storage for FTS matches,
// score and highlight each row, merge chunks, and compute facets and
// aggregations, per spec §4.4.
//
// Grounded on the teacher's internal/search/types.go: the same
// options/result value-type shape and doc-comment density, repurposed from
// RRF-fused BM25+vector search results to this spec's single-index
// BM25+fuzzy pipeline.
package search

import (
	"github.com/aman-cerp/lexidex/internal/geo"
	"github.com/aman-cerp/lexidex/internal/store"
)

// HighlightOptions controls snippet generation for matched fields.
type HighlightOptions struct {
	Enabled bool
	Length  int // snippet length in characters
}

// FacetOptions controls one requested facet: term counts over a metadata
// field within the filtered result set.
type FacetOptions struct {
	Limit    int
	MinCount int
}

// AggregationSpec requests one aggregate value over a numeric field.
type AggregationSpec struct {
	Type  string // min | max | avg | sum | count
	Field string
}

// SearchQuery is the value type accepted by Engine.Search (spec §4.4
// "SearchQuery").
type SearchQuery struct {
	Query           string
	Filters         []store.Predicate
	FieldProjection []string
	Language        string
	Boosts          map[string]float64
	FuzzyEnabled    bool
	Fuzziness       float64 // [0,1], scales driver thresholds; 0 = configured defaults
	Highlight       HighlightOptions
	Facets          map[string]FacetOptions
	Aggregations    map[string]AggregationSpec
	GeoNear         *store.GeoNear
	GeoWithin       *store.GeoWithin
	DistanceSort    *store.SortByDistance
	UniqueByRoute   bool
	Limit           int
	Offset          int
}

// Suggestion is a "did-you-mean" candidate returned when a corrected query
// still yields too few hits.
type Suggestion struct {
	Text       string
	Confidence float64
}

// ResultRow is one ranked, scored, optionally highlighted hit.
type ResultRow struct {
	ID           string
	Score        float64
	Document     map[string]any
	Metadata     map[string]any
	Highlights   map[string]string
	Distance     *float64
	Index        string // set by SearchMultiple
	FuzzyMatched bool
}

// FacetValue is one bucket of a computed facet.
type FacetValue struct {
	Value string
	Count int
}

// Results is the shape returned by Search/SearchMultiple (spec §6
// "SearchResults shape").
type Results struct {
	Results       []ResultRow
	Total         int
	Count         int
	SearchTimeMs  int64
	Facets        map[string][]FacetValue
	Aggregations  map[string]float64
	Suggestions   []Suggestion
}

// geoPointOf extracts a geo.Point from a storage row when both lat/lng are
// present. Nothing in the package calls it at present.
func geoPointOf(lat, lng *float64) *geo.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &geo.Point{Lat: *lat, Lng: *lng}
}
