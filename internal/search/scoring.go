package search

import (
	"strings"

	"github.com/aman-cerp/lexidex/internal/store"
)

// fieldScore is the intermediate per-field scoring contribution computed
// while evaluating one row, named after spec §4.4's field_boost_f /
// match_quality_f / exact_bonus_f / length_penalty_f quantities.
type fieldScore struct {
	weighted   float64 // field_boost_f * match_quality_f * length_penalty_f
	exactBonus float64
}

const (
	matchQualityExact       = 1.0
	matchQualityPhraseInside = 0.85
	matchQualityTokensAny   = 0.7

	exactBonusHighPriority = 50.0
	exactBonusPunctuation  = 30.0
	highPriorityBoost      = 2.5
)

// normalizeBM25 turns the FTS engine's raw, more-negative-is-better bm25()
// value into a "higher is better" score, per spec §4.4: "the implementation
// normalizes to higher is better". SQLite's bm25() returns <=0, so negating
// it is sufficient; a zero (no term weight at all) stays zero.
func normalizeBM25(raw float64) float64 {
	return -raw
}

// scoreField computes one field's contribution to the row's final score,
// given the analyzed query terms (phrase, in original order) and the raw
// stored field value.
func scoreField(fieldValue string, terms []string, boost float64) fieldScore {
	if fieldValue == "" || len(terms) == 0 {
		return fieldScore{}
	}

	phrase := strings.Join(terms, " ")
	normalizedField := normalize(fieldValue)
	normalizedQuery := normalize(phrase)

	quality := matchQualityTokensAny
	switch {
	case normalizedField == normalizedQuery:
		quality = matchQualityExact
	case containsPhrase(fieldValue, phrase):
		quality = matchQualityPhraseInside
	}

	lengthPenalty := 1.0
	if containsPhrase(fieldValue, phrase) {
		diff := float64(len(fieldValue)-len(phrase)) / 100
		if diff < 0 {
			diff = 0
		}
		if diff > 0.5 {
			diff = 0.5
		}
		lengthPenalty = 1.0 - diff
	}

	var exactBonus float64
	switch {
	case boost >= highPriorityBoost && normalizedField == normalizedQuery:
		exactBonus = exactBonusHighPriority
	case normalizedField == normalizedQuery:
		exactBonus = exactBonusPunctuation
	}

	return fieldScore{
		weighted:   boost * quality * lengthPenalty,
		exactBonus: exactBonus,
	}
}

// scoreRow computes the final score for row against the analyzed query
// terms, honoring per-field boosts (default 1.0) and the fuzzy penalty
// applied when the row matched only through fuzzy-expanded terms.
//
// Grounded on the teacher's internal/search/engine.go rrfFuse scoring pass:
// same shape of "compute a per-candidate composite, fold in a penalty,
// return a single float" even though the formula itself is spec-defined
// rather than reciprocal-rank fusion.
func scoreRow(row store.SearchRow, terms []string, boosts map[string]float64, fuzzyMatched bool, fuzzyScorePenalty float64) float64 {
	b := normalizeBM25(row.RawBM25)

	var maxWeighted, maxExactBonus float64
	any := false
	for field, value := range row.FieldHits {
		boost := 1.0
		if v, ok := boosts[field]; ok {
			boost = v
		}
		fs := scoreField(value, terms, boost)
		if !any || fs.weighted > maxWeighted {
			maxWeighted = fs.weighted
		}
		if fs.exactBonus > maxExactBonus {
			maxExactBonus = fs.exactBonus
		}
		any = true
	}
	if !any {
		maxWeighted = 1.0
	}

	score := b*maxWeighted + maxExactBonus
	if fuzzyMatched {
		score *= 1 - fuzzyScorePenalty
	}
	return score
}
