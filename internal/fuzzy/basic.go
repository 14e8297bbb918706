package fuzzy

import "strings"

// basicMatcher is the fastest, crudest driver: one wildcarded variant per
// token plus one deletion variant per character position, up to
// max_fuzzy_variations. It does not consult the vocabulary at all, and it
// does not handle insertion/substitution typos (spec §4.5 "basic").
type basicMatcher struct{}

func (b *basicMatcher) Name() string { return "basic" }

func (b *basicMatcher) Match(token string, _ []string, opts Options) []Candidate {
	if token == "" {
		return nil
	}
	max := opts.MaxVariations
	if max <= 0 {
		max = 10
	}

	variants := make([]Candidate, 0, max)
	variants = append(variants, Candidate{Term: token + "*", Score: 1.0})

	for i := 0; i < len(token) && len(variants) < max; i++ {
		var sb strings.Builder
		sb.WriteString(token[:i])
		sb.WriteString(token[i+1:])
		if sb.Len() == 0 {
			continue
		}
		variants = append(variants, Candidate{Term: sb.String(), Score: 0.8})
	}

	return variants
}
