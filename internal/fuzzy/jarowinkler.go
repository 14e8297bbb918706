package fuzzy

// jaroWinklerMatcher scores candidates by Jaro similarity with a
// common-prefix bonus, keeping terms at or above jw_threshold. A
// length-ratio short-circuit skips pairs whose shorter/longer length ratio
// falls below 0.8 times the threshold, avoiding wasted comparisons against
// wildly mismatched lengths (spec §4.5 "jaro_winkler").
type jaroWinklerMatcher struct{}

func (j *jaroWinklerMatcher) Name() string { return "jaro_winkler" }

const jaroWinklerMaxPrefix = 4

func (j *jaroWinklerMatcher) Match(token string, vocabulary []string, opts Options) []Candidate {
	threshold := opts.JaroWinklerThreshold
	if threshold <= 0 {
		threshold = 0.85
	}
	prefixScale := opts.JaroWinklerPrefixScale
	if prefixScale <= 0 {
		prefixScale = 0.1
	}

	var cands []Candidate
	for _, term := range vocabulary {
		if term == token {
			continue
		}
		if !lengthRatioOK(token, term, threshold) {
			continue
		}
		score := jaroWinkler(token, term, prefixScale)
		if score >= threshold {
			cands = append(cands, Candidate{Term: term, Score: score})
		}
	}

	cands = sortByScoreDesc(cands)
	if max := opts.MaxVariations; max > 0 && len(cands) > max {
		cands = cands[:max]
	}
	return cands
}

func lengthRatioOK(a, b string, threshold float64) bool {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return false
	}
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	return float64(shorter)/float64(longer) >= 0.8*threshold
}

// jaro computes the Jaro similarity between a and b.
func jaro(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 && lb == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0.0
	}

	matchDistance := maxInt(la, lb)/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	aMatched := make([]bool, la)
	bMatched := make([]bool, lb)

	matches := 0
	for i := 0; i < la; i++ {
		start := maxInt(0, i-matchDistance)
		end := minInt(i+matchDistance+1, lb)
		for k := start; k < end; k++ {
			if bMatched[k] || ra[i] != rb[k] {
				continue
			}
			aMatched[i] = true
			bMatched[k] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < la; i++ {
		if !aMatched[i] {
			continue
		}
		for !bMatched[k] {
			k++
		}
		if ra[i] != rb[k] {
			transpositions++
		}
		k++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions))/m) / 3.0
}

// jaroWinkler applies the common-prefix bonus (capped at 4 characters) to
// the Jaro similarity.
func jaroWinkler(a, b string, prefixScale float64) float64 {
	j := jaro(a, b)
	prefix := commonPrefixLen(a, b, jaroWinklerMaxPrefix)
	return j + float64(prefix)*prefixScale*(1.0-j)
}

func commonPrefixLen(a, b string, max int) int {
	ra, rb := []rune(a), []rune(b)
	n := minInt(len(ra), len(rb))
	if n > max {
		n = max
	}
	i := 0
	for i < n && ra[i] == rb[i] {
		i++
	}
	return i
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
