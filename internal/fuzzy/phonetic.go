package fuzzy

import "strings"

// commonMisspellings is a quick-lookup table of frequent English typos,
// checked before falling back to the Metaphone comparison (spec §4.5
// "phonetic").
var commonMisspellings = map[string]string{
	"teh":      "the",
	"thier":    "their",
	"fone":     "phone",
	"recieve":  "receive",
	"wich":     "which",
	"definately": "definitely",
	"seperate": "separate",
	"occured":  "occurred",
	"neccessary": "necessary",
	"goverment": "government",
}

// phoneticMatcher compares tokens by their Metaphone key: an exact key
// match scores 1.0, otherwise a character-similarity fallback produces a
// softer score (spec §4.5 "phonetic").
type phoneticMatcher struct{}

func (p *phoneticMatcher) Name() string { return "phonetic" }

func (p *phoneticMatcher) Match(token string, vocabulary []string, opts Options) []Candidate {
	lower := strings.ToLower(token)
	var cands []Candidate

	if corrected, ok := commonMisspellings[lower]; ok {
		cands = append(cands, Candidate{Term: corrected, Score: 1.0})
	}

	tokenKey := metaphone(token)
	if tokenKey == "" {
		return sortByScoreDesc(cands)
	}

	for _, term := range vocabulary {
		if term == token {
			continue
		}
		termKey := metaphone(term)
		if termKey == "" {
			continue
		}
		if termKey == tokenKey {
			cands = append(cands, Candidate{Term: term, Score: 1.0})
			continue
		}
		sim := charSimilarity(tokenKey, termKey)
		if sim > 0.5 {
			cands = append(cands, Candidate{Term: term, Score: sim})
		}
	}

	cands = sortByScoreDesc(cands)
	if max := opts.MaxVariations; max > 0 && len(cands) > max {
		cands = cands[:max]
	}
	return cands
}

// metaphone produces a simplified phonetic key: consonant skeleton with
// common digraphs collapsed (ph->f, th/ck/sh/gh normalized) and vowels
// dropped except in the leading position, close enough to the classical
// algorithm's intent for fuzzy-grouping purposes without its full rule set.
func metaphone(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	replacer := strings.NewReplacer(
		"ph", "f",
		"th", "0",
		"ck", "k",
		"sh", "x",
		"gh", "g",
		"wh", "w",
		"qu", "k",
	)
	s = replacer.Replace(s)

	var b strings.Builder
	for i, r := range s {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			if i == 0 {
				b.WriteRune(r)
			}
		case 'h', 'w', 'y':
			// silent unless leading
			if i == 0 {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// charSimilarity is a crude normalized common-character overlap used as the
// phonetic fallback when Metaphone keys differ but share structure.
func charSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	counts := make(map[rune]int, len(a))
	for _, r := range a {
		counts[r]++
	}
	shared := 0
	for _, r := range b {
		if counts[r] > 0 {
			counts[r]--
			shared++
		}
	}
	maxLen := maxInt(len(a), len(b))
	return float64(shared) / float64(maxLen)
}
