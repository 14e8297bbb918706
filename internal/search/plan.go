package search

import (
	"context"
	"sort"

	"github.com/aman-cerp/lexidex/internal/config"
	"github.com/aman-cerp/lexidex/internal/fuzzy"
)

// consensusDrivers are the vocabulary-aware drivers polled for correction
// consensus; "basic" is excluded since it generates wildcard/deletion
// variants rather than scoring against the vocabulary.
var consensusDrivers = []string{"trigram", "jaro_winkler", "levenshtein", "phonetic", "keyboard"}

// TokenPlan is the per-query-token outcome of fuzzy planning: the set of
// FTS terms to OR in for this token, and whether any of them came from a
// fuzzy substitution rather than the literal token.
type TokenPlan struct {
	Original     string
	Terms        []string
	FuzzyMatched bool
}

// FuzzyPlanner implements spec §4.5's two modes (expansion, correction)
// over a per-token basis, consulting a shared vocabulary source and
// driver registry.
//
// Grounded on the teacher's internal/search/engine.go query-rewrite step
// (building the RRF candidate list before fan-out); here the rewrite
// target is an FTS match expression instead of a vector query, but the
// "inspect the token, maybe substitute, carry a confidence" shape is the
// same idiom.
type FuzzyPlanner struct {
	cfg   config.SearchConfig
	vocab *fuzzy.VocabularySource
	cache *fuzzy.TermCache
}

// NewFuzzyPlanner builds a planner bound to cfg's fuzzy knobs, sourcing
// vocabulary from vocab and recording accepted corrections into cache (nil
// is accepted — the planner simply skips cache reads/writes).
func NewFuzzyPlanner(cfg config.SearchConfig, vocab *fuzzy.VocabularySource, cache *fuzzy.TermCache) *FuzzyPlanner {
	return &FuzzyPlanner{cfg: cfg, vocab: vocab, cache: cache}
}

// vocabulary returns the live index vocabulary, topped up with terms
// previously accepted into the persistent sidecar cache so a stale or
// briefly-unreachable Storage vocabulary still recalls recently-confirmed
// corrections (spec §3 invariant 5).
func (p *FuzzyPlanner) vocabulary(ctx context.Context) []string {
	terms := p.vocab.Terms(ctx)
	if p.cache == nil {
		return terms
	}
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		seen[t] = struct{}{}
	}
	out := terms
	for _, t := range p.cache.Terms() {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// touch records an accepted fuzzy substitution in the sidecar cache, a
// no-op if no cache is configured.
func (p *FuzzyPlanner) touch(term string) {
	if p.cache != nil {
		p.cache.Touch(term)
	}
}

// options builds the driver Options for this planner's configuration,
// scaling similarity thresholds down (and the Levenshtein distance budget
// up) as fuzziness rises toward 1, per spec §4.4's fuzziness∈[0,1] query
// knob: a caller asking for more fuzziness gets more permissive drivers,
// not just more variations.
func (p *FuzzyPlanner) options(fuzziness float64) fuzzy.Options {
	if fuzziness < 0 {
		fuzziness = 0
	}
	if fuzziness > 1 {
		fuzziness = 1
	}
	relax := 1 - 0.3*fuzziness

	return fuzzy.Options{
		MaxVariations:          p.cfg.MaxFuzzyVariations,
		TrigramSize:            p.cfg.TrigramSize,
		TrigramThreshold:       p.cfg.TrigramThreshold * relax,
		JaroWinklerThreshold:   p.cfg.JaroWinklerThreshold * relax,
		JaroWinklerPrefixScale: p.cfg.JaroWinklerPrefixScale,
		LevenshteinThreshold:   p.cfg.LevenshteinThreshold + int(2*fuzziness),
		KeyboardMaxDistance:    1.5 + fuzziness,
	}
}

// Plan builds one TokenPlan per token in tokens, plus at most one
// did-you-mean suggestion (the corrected full query) for the Engine to
// surface if the final result count is low. No alternative corrections are
// produced or ranked.
func (p *FuzzyPlanner) Plan(ctx context.Context, tokens []string, fuzziness float64) ([]TokenPlan, []Suggestion) {
	if len(tokens) == 0 {
		return nil, nil
	}

	// prefix_last_token applies regardless of enable_fuzzy (spec §4.5): it
	// is a wildcard convenience for as-you-type UX, not a fuzzy match.
	if !p.cfg.EnableFuzzy {
		plans := make([]TokenPlan, len(tokens))
		for i, t := range tokens {
			plan := TokenPlan{Original: t, Terms: []string{t}}
			if p.cfg.PrefixLastToken && i == len(tokens)-1 {
				plan.Terms = append(plan.Terms, t+"*")
			}
			plans[i] = plan
		}
		return plans, nil
	}

	vocabulary := p.vocabulary(ctx)
	opts := p.options(fuzziness)
	lastIdx := len(tokens) - 1

	plans := make([]TokenPlan, len(tokens))
	var suggestionTokens []string
	var confidences []float64
	anyCorrected := false

	for i, token := range tokens {
		plan := TokenPlan{Original: token, Terms: []string{token}}
		suggestionTokens = append(suggestionTokens, token)

		fuzzifyThis := !p.cfg.FuzzyLastTokenOnly || i == lastIdx
		if fuzzifyThis {
			if p.cfg.FuzzyCorrectionMode {
				if corrected, confidence, ok := p.consensusCorrection(token, vocabulary, opts); ok {
					plan.FuzzyMatched = corrected != token
					if plan.FuzzyMatched {
						// Keep the literal token alongside the correction
						// (mirrors expand()'s "token first" pattern) so
						// correction mode never matches a strict subset of
						// what uncorrected search would: an already-valid
						// token can still lose a consensus vote to a
						// plausible neighbor.
						plan.Terms = []string{token, corrected}
					}
					suggestionTokens[i] = corrected
					confidences = append(confidences, confidence)
					anyCorrected = anyCorrected || plan.FuzzyMatched
					if plan.FuzzyMatched {
						p.touch(corrected)
					}
				} else {
					plan.Terms = p.expand(token, vocabulary, opts)
					plan.FuzzyMatched = len(plan.Terms) > 1
				}
			} else {
				plan.Terms = p.expand(token, vocabulary, opts)
				plan.FuzzyMatched = len(plan.Terms) > 1
				if plan.FuzzyMatched {
					for _, t := range plan.Terms[1:] {
						p.touch(t)
					}
				}
			}
		}

		if p.cfg.PrefixLastToken && i == lastIdx {
			plan.Terms = append(plan.Terms, token+"*")
		}

		plans[i] = plan
	}

	var suggestions []Suggestion
	if p.cfg.EnableSuggestions && anyCorrected {
		avg := 0.0
		for _, c := range confidences {
			avg += c
		}
		if len(confidences) > 0 {
			avg /= float64(len(confidences))
		}
		suggestions = append(suggestions, Suggestion{Text: joinTerms(suggestionTokens), Confidence: avg})
	}

	return plans, suggestions
}

// expand generates up to opts.MaxVariations fuzzy variants for token using
// the configured algorithm, deduplicated and with the literal token first.
func (p *FuzzyPlanner) expand(token string, vocabulary []string, opts fuzzy.Options) []string {
	matcher := fuzzy.Get(p.cfg.FuzzyAlgorithm)
	cands := matcher.Match(token, vocabulary, opts)

	seen := map[string]struct{}{token: {}}
	terms := []string{token}
	for _, c := range cands {
		if _, ok := seen[c.Term]; ok {
			continue
		}
		seen[c.Term] = struct{}{}
		terms = append(terms, c.Term)
		if len(terms) > opts.MaxVariations {
			break
		}
	}
	return terms
}

// consensusCorrection polls consensusDrivers for token's top candidate
// each, and accepts a correction only when at least two drivers agree on
// the same term with an average confidence >= correction_threshold, per
// spec §4.5 "Correction" mode.
func (p *FuzzyPlanner) consensusCorrection(token string, vocabulary []string, opts fuzzy.Options) (string, float64, bool) {
	votes := map[string][]float64{}

	for _, name := range consensusDrivers {
		cands := fuzzy.Get(name).Match(token, vocabulary, opts)
		if len(cands) == 0 {
			continue
		}
		top := cands[0]
		votes[top.Term] = append(votes[top.Term], top.Score)
	}

	type scored struct {
		term string
		avg  float64
	}
	var qualifying []scored
	for term, scores := range votes {
		if len(scores) < 2 {
			continue
		}
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		qualifying = append(qualifying, scored{term: term, avg: sum / float64(len(scores))})
	}
	if len(qualifying) == 0 {
		return "", 0, false
	}
	sort.Slice(qualifying, func(i, j int) bool { return qualifying[i].avg > qualifying[j].avg })
	best := qualifying[0]
	if best.avg < p.cfg.CorrectionThreshold {
		return "", 0, false
	}
	return best.term, best.avg, true
}

func joinTerms(terms []string) string {
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}
