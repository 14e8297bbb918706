package fuzzy

// levenshteinMatcher keeps vocabulary terms within levenshtein_threshold
// classical edit-distance of the query token (spec §4.5 "levenshtein").
type levenshteinMatcher struct{}

func (l *levenshteinMatcher) Name() string { return "levenshtein" }

func (l *levenshteinMatcher) Match(token string, vocabulary []string, opts Options) []Candidate {
	threshold := opts.LevenshteinThreshold
	if threshold <= 0 {
		threshold = 2
	}

	var cands []Candidate
	for _, term := range vocabulary {
		if term == token {
			continue
		}
		dist := levenshteinDistance(token, term)
		if dist <= threshold {
			maxLen := maxInt(len(token), len(term))
			score := 1.0
			if maxLen > 0 {
				score = 1.0 - float64(dist)/float64(maxLen)
			}
			cands = append(cands, Candidate{Term: term, Score: score})
		}
	}

	cands = sortByScoreDesc(cands)
	if max := opts.MaxVariations; max > 0 && len(cands) > max {
		cands = cands[:max]
	}
	return cands
}

// levenshteinDistance computes the classical edit distance between a and b
// using the standard two-row dynamic-programming recurrence.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(minInt(curr[j-1]+1, prev[j]+1), prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
