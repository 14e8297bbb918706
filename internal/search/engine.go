package search

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aman-cerp/lexidex/internal/analyzer"
	"github.com/aman-cerp/lexidex/internal/config"
	lexerrors "github.com/aman-cerp/lexidex/internal/errors"
	"github.com/aman-cerp/lexidex/internal/fuzzy"
	"github.com/aman-cerp/lexidex/internal/store"
)

// minHitsForSuggestion is the fewer-than-this-many-hits threshold below
// which did-you-mean suggestions are attached to a response, per spec
// §4.5 ("emit a suggestion ... when the corrected query returns fewer
// than a configured minimum hits").
const minHitsForSuggestion = 3

// Engine answers SearchQuery against one Storage handle, implementing
// spec §4.4's 8-step pipeline end to end.
//
// Grounded on the teacher's internal/search/engine.go Engine: the same
// "own Storage + Analyzer + term cache, expose Search/Count/Suggest"
// shape, repurposed from RRF-fused BM25+vector retrieval to this spec's
// BM25+fuzzy pipeline over a single embedded store.
type Engine struct {
	store       *store.Store
	analyzer    *analyzer.Analyzer
	cfg         config.SearchConfig
	highlighter *Highlighter
	planners    map[string]*FuzzyPlanner
	caches      map[string]*fuzzy.TermCache
	cacheDir    string
}

// EngineOption customizes an Engine at construction.
type EngineOption func(*Engine)

// WithCacheDir overrides the directory fuzzy term-cache sidecar files are
// written under (default: the current directory).
func WithCacheDir(dir string) EngineOption {
	return func(e *Engine) { e.cacheDir = dir }
}

// NewEngine builds an Engine over s, analyzing queries with an and scoring
// per cfg.
func NewEngine(s *store.Store, an *analyzer.Analyzer, cfg config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		store:       s,
		analyzer:    an,
		cfg:         cfg,
		highlighter: NewHighlighter(cfg.HighlightTag, cfg.HighlightTagClose, cfg.SnippetLength),
		planners:    make(map[string]*FuzzyPlanner),
		caches:      make(map[string]*fuzzy.TermCache),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) plannerFor(index string) *FuzzyPlanner {
	if p, ok := e.planners[index]; ok {
		return p
	}
	vocab := fuzzy.NewVocabularySource(
		e.store, index,
		time.Duration(e.cfg.IndexedTermsCacheTTLSecs)*time.Second,
		e.cfg.MinTermFrequency, e.cfg.MaxIndexedTerms,
	)
	p := NewFuzzyPlanner(e.cfg, vocab, e.cacheFor(index))
	e.planners[index] = p
	return p
}

// cacheFor lazily opens and loads the sidecar term cache for index, named
// "<index>_fuzzy_cache.json" in e.cacheDir, per spec §6's sidecar
// naming contract. A missing or corrupt file loads as empty (invariant 5:
// cache unavailability degrades speed, never correctness).
func (e *Engine) cacheFor(index string) *fuzzy.TermCache {
	if c, ok := e.caches[index]; ok {
		return c
	}
	dir := e.cacheDir
	if dir == "" {
		dir = "."
	}
	c := fuzzy.NewTermCache(dir+"/"+index+"_fuzzy_cache.json", e.cfg.MaxFuzzyVariations*100)
	c.Load()
	e.caches[index] = c
	return c
}

// FlushCaches persists every index's fuzzy term cache to its sidecar file.
// Intended to be called by the owning Facade on Close/Flush; a flush
// failure for one index never blocks the others.
func (e *Engine) FlushCaches() {
	for _, c := range e.caches {
		_ = c.Flush()
	}
}

// Forget drops index's cached planner and term cache and deletes its
// sidecar cache file, called by the Facade after drop_index/clear so a
// later recreation starts from a fresh vocabulary instead of a stale
// snapshot.
func (e *Engine) Forget(index string) {
	delete(e.planners, index)
	delete(e.caches, index)
	dir := e.cacheDir
	if dir == "" {
		dir = "."
	}
	_ = os.Remove(dir + "/" + index + "_fuzzy_cache.json")
}

// Search runs query against index, implementing spec §4.4's full pipeline.
func (e *Engine) Search(ctx context.Context, index string, query SearchQuery) (Results, error) {
	start := time.Now()

	rows, suggestions, err := e.runIndex(ctx, index, query)
	if err != nil {
		return Results{}, err
	}
	for i := range rows {
		rows[i].Index = ""
	}

	filtered, total := e.mergeFilterSort(rows, query)
	page := e.paginate(filtered, query)

	out := Results{
		Results:      page,
		Total:        total,
		Count:        len(page),
		SearchTimeMs: time.Since(start).Milliseconds(),
		Facets:       ComputeFacets(filtered, query.Facets),
		Aggregations: ComputeAggregations(filtered, query.Aggregations),
	}
	if e.cfg.EnableSuggestions && len(filtered) < minHitsForSuggestion {
		out.Suggestions = topSuggestions(suggestions, 3)
	}
	return out, nil
}

// Count returns the number of matching rows for query against index
// (post-filter, pre chunk-merge), without scoring or highlighting.
func (e *Engine) Count(ctx context.Context, index string, query SearchQuery) (int, error) {
	spec, err := e.buildQuerySpec(ctx, index, query, 0)
	if err != nil {
		if lexerrors.GetCode(err) == lexerrors.CodeIndexNotFound {
			return 0, nil
		}
		return 0, err
	}
	n, err := e.store.Count(ctx, index, spec)
	if err != nil {
		if lexerrors.GetCode(err) == lexerrors.CodeIndexNotFound {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Suggest returns up to limit did-you-mean style candidates for term
// against index's vocabulary, using the configured fuzzy algorithm.
func (e *Engine) Suggest(ctx context.Context, index, term string, limit int) ([]Suggestion, error) {
	planner := e.plannerFor(index)
	vocabulary := planner.vocabulary(ctx)
	matcher := fuzzy.Get(e.cfg.FuzzyAlgorithm)
	cands := matcher.Match(strings.ToLower(term), vocabulary, planner.options(0))

	if limit <= 0 {
		limit = 5
	}
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]Suggestion, len(cands))
	for i, c := range cands {
		out[i] = Suggestion{Text: c.Term, Confidence: c.Score}
	}
	return out, nil
}

// SearchMultiple runs query against every index in names (already resolved
// from any glob pattern by the caller), merging with the stable tie-break
// from spec §4.3: (score desc, _index asc, ext_id asc).
func (e *Engine) SearchMultiple(ctx context.Context, names []string, query SearchQuery) (Results, error) {
	start := time.Now()

	var all []ResultRow
	var suggestions []Suggestion
	for _, name := range names {
		rows, sugg, err := e.runIndex(ctx, name, query)
		if err != nil {
			continue // a single index's failure degrades gracefully, same as Storage's own MultiSearch
		}
		all = append(all, rows...)
		suggestions = append(suggestions, sugg...)
	}

	filtered, total := e.mergeFilterSort(all, query)
	page := e.paginate(filtered, query)

	out := Results{
		Results:      page,
		Total:        total,
		Count:        len(page),
		SearchTimeMs: time.Since(start).Milliseconds(),
		Facets:       ComputeFacets(filtered, query.Facets),
		Aggregations: ComputeAggregations(filtered, query.Aggregations),
	}
	if e.cfg.EnableSuggestions && len(filtered) < minHitsForSuggestion {
		out.Suggestions = topSuggestions(suggestions, 3)
	}
	return out, nil
}

// analyzeQuery runs the query text through the shared Analyzer, per spec
// §4.4 step 1, preserving token order for phrase matching.
func (e *Engine) analyzeQuery(query SearchQuery) []string {
	return e.analyzer.Analyze(query.Query, query.Language).Tokens
}

// buildQuerySpec runs steps 1-3 (analyze, fuzzy plan, match expression)
// and returns the store.QuerySpec ready for execution. limitHint, when
// nonzero, is forwarded as-is (Count doesn't need it; Search/SearchMultiple
// fetch the full candidate set and paginate themselves per spec §4.4).
func (e *Engine) buildQuerySpec(ctx context.Context, index string, query SearchQuery, limitHint int) (store.QuerySpec, error) {
	terms := e.analyzeQuery(query)
	plans, _ := e.planTerms(ctx, index, query, terms)

	var orTerms []string
	for _, p := range plans {
		orTerms = append(orTerms, p.Terms...)
	}

	return store.QuerySpec{
		MatchExpr:      BuildMatchExpression(dedupe(orTerms)),
		Predicates:     query.Filters,
		GeoNear:        query.GeoNear,
		GeoWithin:      query.GeoWithin,
		SortByDistance: query.DistanceSort,
		Limit:          limitHint,
	}, nil
}

// planTerms runs the fuzzy planner for index/query when requested, or
// returns an identity plan (one term per token) otherwise.
func (e *Engine) planTerms(ctx context.Context, index string, query SearchQuery, terms []string) ([]TokenPlan, []Suggestion) {
	if !query.FuzzyEnabled || !e.cfg.EnableFuzzy {
		plans := make([]TokenPlan, len(terms))
		for i, t := range terms {
			plans[i] = TokenPlan{Original: t, Terms: []string{t}}
		}
		return plans, nil
	}
	return e.plannerFor(index).Plan(ctx, terms, query.Fuzziness)
}

// runIndex executes the pipeline through step 5 (score + highlight each
// row) for one index, returning unmerged, unpaginated result rows tagged
// with their source index.
func (e *Engine) runIndex(ctx context.Context, index string, query SearchQuery) ([]ResultRow, []Suggestion, error) {
	terms := e.analyzeQuery(query)
	plans, suggestions := e.planTerms(ctx, index, query, terms)

	var orTerms []string
	fuzzyTerms := map[string]bool{}
	for _, p := range plans {
		orTerms = append(orTerms, p.Terms...)
		if p.FuzzyMatched {
			for _, t := range p.Terms {
				fuzzyTerms[strings.ToLower(t)] = true
			}
		}
	}

	spec := store.QuerySpec{
		MatchExpr:      BuildMatchExpression(dedupe(orTerms)),
		Predicates:     query.Filters,
		GeoNear:        query.GeoNear,
		GeoWithin:      query.GeoWithin,
		SortByDistance: query.DistanceSort,
	}

	rows, err := e.store.Search(ctx, index, spec)
	if err != nil {
		if lexerrors.GetCode(err) == lexerrors.CodeIndexNotFound {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	out := make([]ResultRow, 0, len(rows))
	for _, r := range rows {
		isFuzzy := len(fuzzyTerms) > 0 && rowMatchedOnlyViaFuzzy(r, terms)
		score := scoreRow(r, terms, query.Boosts, isFuzzy, e.cfg.FuzzyScorePenalty)

		row := ResultRow{
			ID:           r.ExtID,
			Score:        score,
			Document:     project(r.Content, query.FieldProjection),
			Metadata:     r.Metadata,
			Distance:     r.Distance,
			Index:        index,
			FuzzyMatched: isFuzzy,
		}
		if query.Highlight.Enabled {
			row.Highlights = e.highlightRow(r, orTerms, query.Highlight.Length)
		}
		out = append(out, row)
	}
	return out, suggestions, nil
}

// highlightRow snippets from the original, unanalyzed field text
// (row.Content), not row.FieldHits: FieldHits holds the stemmed,
// lowercased, stopword-stripped text the FTS index actually stores, which
// makes unreadable snippets. row.FieldHits is still consulted to know
// which fields matched at all.
func (e *Engine) highlightRow(row store.SearchRow, terms []string, length int) map[string]string {
	out := map[string]string{}
	for field := range row.FieldHits {
		original, ok := row.Content[field].(string)
		if !ok {
			continue
		}
		snippet := e.highlighter.Snippet(original, terms, length)
		if snippet != "" {
			out[field] = snippet
		}
	}
	return out
}

// rowMatchedOnlyViaFuzzy reports whether row's field hits contain none of
// the literal original query terms, meaning it was reached only through a
// fuzzy substitution or variant.
func rowMatchedOnlyViaFuzzy(row store.SearchRow, terms []string) bool {
	for _, value := range row.FieldHits {
		lower := strings.ToLower(value)
		for _, t := range terms {
			if t != "" && strings.Contains(lower, strings.ToLower(t)) {
				return false
			}
		}
	}
	return true
}

// mergeFilterSort runs steps 6-7: merge chunks/routes, apply the min_score
// cutoff, and sort by the final tie-break order. Returns the full filtered
// set (for facets/aggregations/total) already in final order.
func (e *Engine) mergeFilterSort(rows []ResultRow, query SearchQuery) ([]ResultRow, int) {
	merged := mergeChunks(rows, query.Highlight.Length)
	if query.UniqueByRoute {
		merged = uniqueByRoute(merged)
	}

	filtered := merged[:0:0]
	for _, r := range merged {
		if r.Score >= e.cfg.MinScore {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		if filtered[i].Index != filtered[j].Index {
			return filtered[i].Index < filtered[j].Index
		}
		return filtered[i].ID < filtered[j].ID
	})

	return filtered, len(filtered)
}

// paginate applies query's limit/offset (step 7), capping the limit at
// search.max_results.
func (e *Engine) paginate(rows []ResultRow, query SearchQuery) []ResultRow {
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	if e.cfg.MaxResults > 0 && limit > e.cfg.MaxResults {
		limit = e.cfg.MaxResults
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

// mergeChunks collapses rows sharing metadata.parent_id into their parent
// per spec §4.4 step 6: score becomes the max of member scores, highlights
// are concatenated and deduplicated up to the highlight length.
func mergeChunks(rows []ResultRow, highlightLength int) []ResultRow {
	byParent := map[string][]ResultRow{}
	var order []string
	var standalone []ResultRow

	for _, r := range rows {
		parentID, isChunk := chunkParent(r.Metadata)
		if !isChunk {
			standalone = append(standalone, r)
			continue
		}
		if _, ok := byParent[parentID]; !ok {
			order = append(order, parentID)
		}
		byParent[parentID] = append(byParent[parentID], r)
	}

	out := append([]ResultRow{}, standalone...)
	for _, parentID := range order {
		members := byParent[parentID]
		merged := members[0]
		for _, m := range members[1:] {
			if m.Score > merged.Score {
				merged.Score = m.Score
			}
		}
		merged.ID = parentID
		merged.Highlights = mergeHighlights(members, highlightLength)
		out = append(out, merged)
	}
	return out
}

func chunkParent(metadata map[string]any) (string, bool) {
	isChunk, _ := metadata["is_chunk"].(bool)
	if !isChunk {
		return "", false
	}
	parentID, _ := metadata["parent_id"].(string)
	return parentID, parentID != ""
}

func mergeHighlights(members []ResultRow, length int) map[string]string {
	if length <= 0 {
		length = 200
	}
	out := map[string]string{}
	seen := map[string]map[string]struct{}{}
	for _, m := range members {
		for field, snippet := range m.Highlights {
			if _, ok := seen[field]; !ok {
				seen[field] = map[string]struct{}{}
			}
			if _, dup := seen[field][snippet]; dup {
				continue
			}
			seen[field][snippet] = struct{}{}
			switch {
			case out[field] == "":
				out[field] = snippet
			case len(out[field]) < length:
				out[field] += " " + snippet
			}
		}
	}
	return out
}

// uniqueByRoute collapses rows sharing metadata.route, keeping the first
// (highest-scored, since callers merge before sorting) occurrence.
func uniqueByRoute(rows []ResultRow) []ResultRow {
	seen := map[string]bool{}
	var out []ResultRow
	for _, r := range rows {
		route, _ := r.Metadata["route"].(string)
		if route == "" {
			out = append(out, r)
			continue
		}
		if seen[route] {
			continue
		}
		seen[route] = true
		out = append(out, r)
	}
	return out
}

// project narrows content down to the requested field names, or returns it
// unchanged when fields is empty (spec §4.4 "field_projection[]").
func project(content map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return content
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := content[f]; ok {
			out[f] = v
		}
	}
	return out
}

func dedupe(terms []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func topSuggestions(suggestions []Suggestion, n int) []Suggestion {
	sort.Slice(suggestions, func(i, j int) bool { return suggestions[i].Confidence > suggestions[j].Confidence })
	if len(suggestions) > n {
		suggestions = suggestions[:n]
	}
	return suggestions
}
