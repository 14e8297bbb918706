package lexidex

import (
	"context"
	"strings"

	"github.com/aman-cerp/lexidex/internal/geo"
	"github.com/aman-cerp/lexidex/internal/search"
	"github.com/aman-cerp/lexidex/internal/store"
)

// Predicate is one clause of a metadata/content filter (spec §4.3).
// FieldPath is one of "id", "language", "type", "timestamp",
// "metadata.<path>", or "content.<path>".
type Predicate struct {
	FieldPath string
	Operator  string // =, !=, <, <=, >, >=, in, not in, contains, like, exists, =?
	Value     any
}

// GeoNear requests rows within RadiusMeters of (Lat, Lng).
type GeoNear struct {
	Lat, Lng     float64
	RadiusMeters float64
}

// GeoBounds is an axis-aligned lat/lng box; West > East is interpreted as
// a date-line crossing.
type GeoBounds struct {
	North, South, East, West float64
}

// GeoWithin requests rows inside Bounds.
type GeoWithin struct {
	Bounds GeoBounds
}

// DistanceSort requests Haversine-distance ordering from (Lat, Lng).
type DistanceSort struct {
	Lat, Lng   float64
	Descending bool
}

// HighlightOptions controls snippet generation for matched fields.
type HighlightOptions struct {
	Enabled bool
	Length  int
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

// SearchOptions is the options argument accepted by Search, Count, and
// SearchMultiple (spec §6).
type SearchOptions struct {
	Filters         []Predicate
	FieldProjection []string
	Language        string
	Boosts          map[string]float64
	Fuzzy           bool
	Fuzziness       float64 // [0,1]; 0 uses configured driver defaults
	Highlight       HighlightOptions
	Facets          map[string]FacetOptions
	Aggregations    map[string]AggregationSpec
	Near            *GeoNear
	Within          *GeoWithin
	SortByDistance  *DistanceSort
	UniqueByRoute   bool
	Limit, Offset   int
}

// ResultRow is one matched document.
type ResultRow struct {
	ID           string
	Score        float64
	Document     map[string]any
	Metadata     map[string]any
	Highlights   map[string]string
	Distance     *float64 // meters, set when SortByDistance/Near was requested
	Index        string   // source index name, set by SearchMultiple
	FuzzyMatched bool
}

// FacetValue is one bucket of a computed facet.
type FacetValue struct {
	Value string
	Count int
}

// Suggestion is a "did-you-mean" candidate.
type Suggestion struct {
	Text       string
	Confidence float64
}

// SearchResults is the shape returned by Search/SearchMultiple (spec §6).
type SearchResults struct {
	Results      []ResultRow
	Total        int
	Count        int
	SearchTimeMs int64
	Facets       map[string][]FacetValue
	Aggregations map[string]float64
	Suggestions  []Suggestion
}

func toStorePredicates(preds []Predicate) []store.Predicate {
	if len(preds) == 0 {
		return nil
	}
	out := make([]store.Predicate, len(preds))
	for i, p := range preds {
		out[i] = store.Predicate{FieldPath: p.FieldPath, Operator: p.Operator, Value: p.Value}
	}
	return out
}

func toSearchQuery(text string, opts SearchOptions) search.SearchQuery {
	q := search.SearchQuery{
		Query:           text,
		Filters:         toStorePredicates(opts.Filters),
		FieldProjection: opts.FieldProjection,
		Language:        opts.Language,
		Boosts:          opts.Boosts,
		FuzzyEnabled:    opts.Fuzzy,
		Fuzziness:       opts.Fuzziness,
		Highlight:       search.HighlightOptions{Enabled: opts.Highlight.Enabled, Length: opts.Highlight.Length},
		UniqueByRoute:   opts.UniqueByRoute,
		Limit:           opts.Limit,
		Offset:          opts.Offset,
	}
	if len(opts.Facets) > 0 {
		q.Facets = make(map[string]search.FacetOptions, len(opts.Facets))
		for name, f := range opts.Facets {
			q.Facets[name] = search.FacetOptions{Limit: f.Limit, MinCount: f.MinCount}
		}
	}
	if len(opts.Aggregations) > 0 {
		q.Aggregations = make(map[string]search.AggregationSpec, len(opts.Aggregations))
		for name, a := range opts.Aggregations {
			q.Aggregations[name] = search.AggregationSpec{Type: a.Type, Field: a.Field}
		}
	}
	if opts.Near != nil {
		q.GeoNear = &store.GeoNear{Point: geo.Point{Lat: opts.Near.Lat, Lng: opts.Near.Lng}, Radius: opts.Near.RadiusMeters}
	}
	if opts.Within != nil {
		b := opts.Within.Bounds
		q.GeoWithin = &store.GeoWithin{Bounds: geo.Bounds{North: b.North, South: b.South, East: b.East, West: b.West}}
	}
	if opts.SortByDistance != nil {
		q.DistanceSort = &store.SortByDistance{
			Point:      geo.Point{Lat: opts.SortByDistance.Lat, Lng: opts.SortByDistance.Lng},
			Descending: opts.SortByDistance.Descending,
		}
	}
	return q
}

func fromResults(r search.Results) SearchResults {
	out := SearchResults{
		Results:      make([]ResultRow, len(r.Results)),
		Total:        r.Total,
		Count:        r.Count,
		SearchTimeMs: r.SearchTimeMs,
	}
	for i, row := range r.Results {
		out.Results[i] = ResultRow{
			ID: row.ID, Score: row.Score, Document: row.Document, Metadata: row.Metadata,
			Highlights: row.Highlights, Distance: row.Distance, Index: row.Index, FuzzyMatched: row.FuzzyMatched,
		}
	}
	if len(r.Facets) > 0 {
		out.Facets = make(map[string][]FacetValue, len(r.Facets))
		for field, values := range r.Facets {
			fv := make([]FacetValue, len(values))
			for i, v := range values {
				fv[i] = FacetValue{Value: v.Value, Count: v.Count}
			}
			out.Facets[field] = fv
		}
	}
	if len(r.Aggregations) > 0 {
		out.Aggregations = r.Aggregations
	}
	for _, s := range r.Suggestions {
		out.Suggestions = append(out.Suggestions, Suggestion{Text: s.Text, Confidence: s.Confidence})
	}
	return out
}

// Search runs queryText against name, returning ranked, paginated results
// per spec §4.4's full pipeline. A non-existent index returns empty
// results, not an error.
func (f *Facade) Search(ctx context.Context, name, queryText string, opts SearchOptions) (SearchResults, error) {
	r, err := f.engine.Search(ctx, name, toSearchQuery(queryText, opts))
	if err != nil {
		return SearchResults{}, wrapError(err)
	}
	return fromResults(r), nil
}

// Count returns the number of documents queryText matches against name,
// ignoring pagination, facets, and highlighting. A non-existent index
// returns 0, not an error.
func (f *Facade) Count(ctx context.Context, name, queryText string, opts SearchOptions) (int, error) {
	n, err := f.engine.Count(ctx, name, toSearchQuery(queryText, opts))
	if err != nil {
		return 0, wrapError(err)
	}
	return n, nil
}

// Suggest returns up to limit did-you-mean candidates for term against
// name's vocabulary, using the configured fuzzy algorithm.
func (f *Facade) Suggest(ctx context.Context, name, term string, limit int) ([]Suggestion, error) {
	cands, err := f.engine.Suggest(ctx, name, term, limit)
	if err != nil {
		return nil, wrapError(err)
	}
	out := make([]Suggestion, len(cands))
	for i, c := range cands {
		out[i] = Suggestion{Text: c.Text, Confidence: c.Confidence}
	}
	return out, nil
}

// SearchMultiple runs queryText against every index in names (or, if
// names has exactly one entry ending in "*", every index whose name has
// that prefix), merging results by score descending with a stable
// tie-break on (score desc, _index asc, ext_id asc), and annotating each
// row's Index field.
func (f *Facade) SearchMultiple(ctx context.Context, names []string, queryText string, opts SearchOptions) (SearchResults, error) {
	resolved, err := f.resolveIndexPattern(ctx, names)
	if err != nil {
		return SearchResults{}, wrapError(err)
	}
	r, err := f.engine.SearchMultiple(ctx, resolved, toSearchQuery(queryText, opts))
	if err != nil {
		return SearchResults{}, wrapError(err)
	}
	return fromResults(r), nil
}

func (f *Facade) resolveIndexPattern(ctx context.Context, names []string) ([]string, error) {
	if len(names) != 1 || !strings.HasSuffix(names[0], "*") {
		return names, nil
	}
	prefix := strings.TrimSuffix(names[0], "*")
	summaries, err := f.store.ListIndices(ctx)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, s := range summaries {
		if strings.HasPrefix(s.Name, prefix) {
			matched = append(matched, s.Name)
		}
	}
	return matched, nil
}
