package store

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// IndexedSearchRow tags a SearchRow with the index it came from, for
// multi-index fan-out merging (spec §4.3 "annotates each returned row with
// _index").
type IndexedSearchRow struct {
	SearchRow
	Index string
}

// MultiSearch runs spec against every name in indices concurrently, each
// goroutine using its own prepared-statement path per spec §5 ("each query
// uses its own prepared-statement handle"), and returns the tagged union.
// A single index's error does not abort the others; it is simply omitted
// (matching the graceful per-index degradation the SearchEngine applies
// elsewhere).
//
// Grounded on the teacher's internal/search/engine.go parallelSearch,
// which fans out BM25 and vector queries the same way via errgroup.
func (s *Store) MultiSearch(ctx context.Context, indices []string, spec QuerySpec) ([]IndexedSearchRow, error) {
	results := make([][]IndexedSearchRow, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range indices {
		i, name := i, name
		g.Go(func() error {
			rows, err := s.Search(gctx, name, spec)
			if err != nil {
				// Per-index failure degrades gracefully: this index
				// simply contributes no rows rather than aborting the
				// whole fan-out.
				return nil
			}
			tagged := make([]IndexedSearchRow, len(rows))
			for j, r := range rows {
				tagged[j] = IndexedSearchRow{SearchRow: r, Index: name}
			}
			results[i] = tagged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []IndexedSearchRow
	for _, rs := range results {
		merged = append(merged, rs...)
	}
	return merged, nil
}
