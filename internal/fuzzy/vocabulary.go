package fuzzy

import (
	"context"
	"sync"
	"time"

	"github.com/aman-cerp/lexidex/internal/store"
)

// VocabularySource fetches the candidate term list a driver compares
// against, backed by Storage's read-only terms view (spec §4.5 "candidate
// vocabulary").
type VocabularySource struct {
	mu              sync.Mutex
	store           *store.Store
	index           string
	ttl             time.Duration
	minFrequency    int
	maxTerms        int
	cachedAt        time.Time
	cachedTerms     []string
}

// NewVocabularySource builds a source reading index's vocabulary through
// s, refreshed at most once per ttl (search.indexed_terms_cache_ttl).
func NewVocabularySource(s *store.Store, index string, ttl time.Duration, minFrequency, maxTerms int) *VocabularySource {
	return &VocabularySource{
		store:        s,
		index:        index,
		ttl:          ttl,
		minFrequency: minFrequency,
		maxTerms:     maxTerms,
	}
}

// Terms returns the cached vocabulary, refreshing from Storage if the TTL
// has elapsed. A refresh failure falls back to the last good snapshot
// (possibly empty), never an error — per invariant 5, a stale or missing
// vocabulary degrades fuzzy recall, it does not break correctness.
func (v *VocabularySource) Terms(ctx context.Context) []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cachedTerms != nil && time.Since(v.cachedAt) < v.ttl {
		return v.cachedTerms
	}

	rows, err := v.store.Terms(ctx, v.index, v.minFrequency, v.maxTerms)
	if err != nil {
		return v.cachedTerms
	}

	terms := make([]string, len(rows))
	for i, r := range rows {
		terms[i] = r.Term
	}
	v.cachedTerms = terms
	v.cachedAt = time.Now()
	return v.cachedTerms
}

// Invalidate forces the next Terms call to refresh regardless of TTL,
// used after a write that likely changed the vocabulary.
func (v *VocabularySource) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cachedTerms = nil
}
