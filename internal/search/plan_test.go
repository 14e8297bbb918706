package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/lexidex/internal/config"
	"github.com/aman-cerp/lexidex/internal/fuzzy"
	"github.com/aman-cerp/lexidex/internal/store"
)

func newVocabFixture(t *testing.T, terms ...string) *fuzzy.VocabularySource {
	t.Helper()
	s, err := store.Open("", store.CacheConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.CreateIndex(context.Background(), "docs", store.IndexOptions{Fields: store.DefaultFields()}))
	docs := make([]store.Document, len(terms))
	for i, term := range terms {
		docs[i] = store.Document{ID: term, Content: map[string]any{"content": term}}
	}
	_, err = s.WriteBatch(context.Background(), "docs", docs, func(d store.Document) map[string]string {
		return map[string]string{"content": d.Content["content"].(string)}
	})
	require.NoError(t, err)

	return fuzzy.NewVocabularySource(s, "docs", time.Minute, 1, 1000)
}

func TestPlanPassthroughWhenFuzzyDisabled(t *testing.T) {
	cfg := config.SearchConfig{EnableFuzzy: false}
	p := NewFuzzyPlanner(cfg, newVocabFixture(t, "widget"), nil)
	plans, sugg := p.Plan(context.Background(), []string{"wigdet"}, 0)
	require.Len(t, plans, 1)
	assert.Equal(t, []string{"wigdet"}, plans[0].Terms)
	assert.False(t, plans[0].FuzzyMatched)
	assert.Empty(t, sugg)
}

func TestPlanExpansionModeAddsVariants(t *testing.T) {
	cfg := config.SearchConfig{
		EnableFuzzy:          true,
		FuzzyCorrectionMode:  false,
		FuzzyAlgorithm:       "trigram",
		TrigramSize:          3,
		TrigramThreshold:     0.3,
		MaxFuzzyVariations:   10,
	}
	p := NewFuzzyPlanner(cfg, newVocabFixture(t, "widget", "gadget"), nil)
	plans, _ := p.Plan(context.Background(), []string{"widgit"}, 0)
	require.Len(t, plans, 1)
	assert.Contains(t, plans[0].Terms, "widgit")
	assert.True(t, plans[0].FuzzyMatched)
}

func TestPlanCorrectionModeSubstitutesOnConsensus(t *testing.T) {
	cfg := config.SearchConfig{
		EnableFuzzy:            true,
		FuzzyCorrectionMode:    true,
		CorrectionThreshold:    0.5,
		TrigramSize:            3,
		TrigramThreshold:       0.3,
		JaroWinklerThreshold:   0.8,
		JaroWinklerPrefixScale: 0.1,
		LevenshteinThreshold:   2,
		MaxFuzzyVariations:     10,
	}
	p := NewFuzzyPlanner(cfg, newVocabFixture(t, "skywalker", "obiwan"), nil)
	plans, _ := p.Plan(context.Background(), []string{"skywaker"}, 0)
	require.Len(t, plans, 1)
	assert.Equal(t, []string{"skywaker", "skywalker"}, plans[0].Terms)
	assert.True(t, plans[0].FuzzyMatched)
}

func TestPlanLastTokenOnlySkipsEarlierTokens(t *testing.T) {
	cfg := config.SearchConfig{
		EnableFuzzy:         true,
		FuzzyCorrectionMode: false,
		FuzzyLastTokenOnly:  true,
		FuzzyAlgorithm:      "trigram",
		TrigramSize:         3,
		TrigramThreshold:    0.3,
		MaxFuzzyVariations:  10,
	}
	p := NewFuzzyPlanner(cfg, newVocabFixture(t, "widget"), nil)
	plans, _ := p.Plan(context.Background(), []string{"wigdet", "wigdet"}, 0)
	require.Len(t, plans, 2)
	assert.Equal(t, []string{"wigdet"}, plans[0].Terms) // earlier token untouched
	assert.False(t, plans[0].FuzzyMatched)
}

func TestPlanPrefixLastTokenAppendsWildcard(t *testing.T) {
	cfg := config.SearchConfig{
		EnableFuzzy:         false,
		PrefixLastToken:     true,
		MaxFuzzyVariations:  10,
	}
	p := NewFuzzyPlanner(cfg, newVocabFixture(t, "widget"), nil)
	plans, _ := p.Plan(context.Background(), []string{"wid"}, 0)
	require.Len(t, plans, 1)
	assert.Contains(t, plans[0].Terms, "wid*")
}
