package fuzzy

// trigramMatcher generates n-grams (padded to mark word boundaries) for the
// query token and each vocabulary term, and keeps terms whose Jaccard
// similarity clears trigram_threshold (spec §4.5 "trigram", the default
// driver).
type trigramMatcher struct{}

func (t *trigramMatcher) Name() string { return "trigram" }

func (t *trigramMatcher) Match(token string, vocabulary []string, opts Options) []Candidate {
	size := opts.TrigramSize
	if size <= 0 {
		size = 3
	}
	threshold := opts.TrigramThreshold
	if threshold <= 0 {
		threshold = 0.35
	}

	tokenGrams := ngramSet(token, size)
	if len(tokenGrams) == 0 {
		return nil
	}

	var cands []Candidate
	for _, term := range vocabulary {
		if term == token {
			continue
		}
		termGrams := ngramSet(term, size)
		sim := jaccard(tokenGrams, termGrams)
		if sim >= threshold {
			cands = append(cands, Candidate{Term: term, Score: sim})
		}
	}

	max := opts.MaxVariations
	if max > 0 && len(cands) > max {
		cands = sortByScoreDesc(cands)[:max]
	} else {
		cands = sortByScoreDesc(cands)
	}
	return cands
}

// ngramSet returns the set of padded n-grams of s: boundary markers ("$")
// are prepended/appended so edge characters participate in as many grams
// as interior ones.
func ngramSet(s string, n int) map[string]struct{} {
	padded := "$" + s + "$"
	runes := []rune(padded)
	set := make(map[string]struct{})
	for i := 0; i+n <= len(runes); i++ {
		set[string(runes[i:i+n])] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
