// Package store implements lexidex's storage contract: schema management,
// transactional writes, FTS5-style full-text search with BM25, metadata
// predicate evaluation over JSON, R-tree-backed geo filtering, term
// enumeration, and multi-index fan-out, over an embedded SQL engine.
//
// Grounded on the teacher's internal/store/sqlite_bm25.go: the
// external-content FTS5 schema, the delete-then-insert write workaround
// (FTS5 has no REPLACE), and the modernc.org/sqlite pure-Go driver choice
// are all carried over; the predicate/geo/multi-index vocabulary is new,
// built in the same parameterized-SQL-construction style.
package store

import (
	"encoding/json"

	"github.com/aman-cerp/lexidex/internal/geo"
)

// Field is a per-index field configuration. The field set is fixed at
// index creation; changing it requires a rebuild.
type Field struct {
	Name  string
	Boost float64
	Store bool
	Index bool
}

// IndexOptions configures a new index: its field set (order-independent,
// keyed by field name).
type IndexOptions struct {
	Fields map[string]Field
}

// DefaultFields returns the single "content" field indexed and stored with
// boost 1.0, matching the indexer.fields default from spec §6.
func DefaultFields() map[string]Field {
	return map[string]Field{
		"content": {Name: "content", Boost: 1.0, Store: true, Index: true},
	}
}

// Document is the client-facing document shape from spec §3.
type Document struct {
	ID        string
	Content   map[string]any
	Metadata  map[string]any
	Language  string
	Type      string
	Timestamp int64
	GeoPoint  *geo.Point
	GeoBounds *geo.Bounds
}

// Row is the internal row representation returned from storage queries:
// the raw columns plus the decoded content/metadata maps.
type Row struct {
	DocID     int64
	ExtID     string
	Language  string
	Type      string
	Timestamp int64
	Content   map[string]any
	Metadata  map[string]any
	GeoLat    *float64
	GeoLng    *float64
	IndexedAt int64
}

// MarshalJSONMap serializes a map[string]any to a JSON string for storage
// in a TEXT column, treating a nil map as an empty object.
func MarshalJSONMap(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalJSONMap is the inverse of MarshalJSONMap, tolerating an empty
// string as an empty map.
func UnmarshalJSONMap(s string) (map[string]any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// IndexStats is the shape returned by getStats().
type IndexStats struct {
	DocumentCount int
	ChunkCount    int
	SizeBytes     int64
	AvgDocLength  float64
}

// IndexSummary is one entry of list_indices()'s result.
type IndexSummary struct {
	Name          string
	DocumentCount int
	Languages     []string
	Types         []string
}

// SearchRow is a single FTS match returned by Storage's Search, before
// SearchEngine-side scoring/highlighting.
type SearchRow struct {
	Row
	RawBM25    float64 // negative-is-better, as returned by the FTS engine
	FieldHits  map[string]string // field name -> matched field text (for scoring/highlight)
	Distance   *float64          // meters, set when geo.sort_by_distance requested
}

// Predicate is one clause of storage's metadata predicate language
// (spec §4.3). FieldPath is one of "id", "language", "type", "timestamp",
// "metadata.<path>", or "content.<path>".
type Predicate struct {
	FieldPath string
	Operator  string // =, !=, <, <=, >, >=, in, not in, contains, like, exists, =?
	Value     any
}

// GeoNear is the near(point, radius_meters) geo predicate.
type GeoNear struct {
	Point  geo.Point
	Radius float64 // meters
}

// GeoWithin is the within(bounds) geo predicate.
type GeoWithin struct {
	Bounds geo.Bounds
}

// SortByDistance requests Haversine-distance ordering from a point.
type SortByDistance struct {
	Point      geo.Point
	Descending bool
}

// QuerySpec bundles everything Storage needs to execute one FTS query:
// the already-built match expression, predicate filters, and optional geo
// constraints/sort.
type QuerySpec struct {
	MatchExpr      string
	FieldNames     []string // indexed field columns to search and return hit text for
	Predicates     []Predicate
	GeoNear        *GeoNear
	GeoWithin      *GeoWithin
	SortByDistance *SortByDistance
	Limit          int
	Offset         int
}
