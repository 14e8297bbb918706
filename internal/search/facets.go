package search

import (
	"fmt"
	"sort"
	"strings"
)

// ComputeFacets computes term-count buckets over each requested metadata
// field across rows, honoring each facet's limit/min_count, per spec §4.4
// step 8 ("within the unpaginated, filter-applied result set").
func ComputeFacets(rows []ResultRow, facets map[string]FacetOptions) map[string][]FacetValue {
	if len(facets) == 0 {
		return nil
	}

	out := make(map[string][]FacetValue, len(facets))
	for field, opts := range facets {
		counts := map[string]int{}
		for _, row := range rows {
			v, ok := extractPath(row.Metadata, field)
			if !ok {
				continue
			}
			counts[facetValueString(v)]++
		}

		values := make([]FacetValue, 0, len(counts))
		for v, c := range counts {
			minCount := opts.MinCount
			if c < minCount {
				continue
			}
			values = append(values, FacetValue{Value: v, Count: c})
		}
		sort.Slice(values, func(i, j int) bool {
			if values[i].Count != values[j].Count {
				return values[i].Count > values[j].Count
			}
			return values[i].Value < values[j].Value
		})
		if opts.Limit > 0 && len(values) > opts.Limit {
			values = values[:opts.Limit]
		}
		out[field] = values
	}
	return out
}

// ComputeAggregations computes one scalar per requested aggregation over
// rows, reading each numeric value from the row's metadata (falling back
// to its document content) at the aggregation's field path.
func ComputeAggregations(rows []ResultRow, aggs map[string]AggregationSpec) map[string]float64 {
	if len(aggs) == 0 {
		return nil
	}

	out := make(map[string]float64, len(aggs))
	for name, spec := range aggs {
		values := numericValues(rows, spec.Field)
		out[name] = aggregate(spec.Type, values)
	}
	return out
}

func numericValues(rows []ResultRow, field string) []float64 {
	var out []float64
	for _, row := range rows {
		v, ok := extractPath(row.Metadata, field)
		if !ok {
			v, ok = extractPath(row.Document, field)
		}
		if !ok {
			continue
		}
		if f, ok := toFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func aggregate(kind string, values []float64) float64 {
	switch kind {
	case "count":
		return float64(len(values))
	case "sum":
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum
	case "avg":
		if len(values) == 0 {
			return 0
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	case "min":
		if len(values) == 0 {
			return 0
		}
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case "max":
		if len(values) == 0 {
			return 0
		}
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func facetValueString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

// extractPath walks a dot-separated path ("a.b.c") through nested
// map[string]any values, as stored in a document's metadata/content.
func extractPath(m map[string]any, path string) (any, bool) {
	if m == nil || path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = asMap[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
