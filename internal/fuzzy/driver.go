// Package fuzzy implements lexidex's fuzzy matching subsystem: six
// candidate-generation algorithms (basic, trigram, Jaro-Winkler,
// Levenshtein, phonetic, keyboard-proximity), a registry selecting one by
// name, and a persistent on-disk term cache, per spec §4.5.
//
// Grounded on the teacher's internal/store/bm25_factory.go registry/factory
// idiom: a name-keyed map of constructors, selected at call time rather
// than import time, so new drivers register without touching callers.
package fuzzy

import "sort"

// Candidate is one fuzzy match produced against a vocabulary term, with a
// similarity score in [0, 1] (1.0 = exact).
type Candidate struct {
	Term  string
	Score float64
}

// Options bundles every tunable knob a driver might need. Drivers ignore
// fields that don't apply to their algorithm.
type Options struct {
	MaxVariations         int
	TrigramSize           int
	TrigramThreshold      float64
	JaroWinklerThreshold  float64
	JaroWinklerPrefixScale float64
	LevenshteinThreshold  int
	KeyboardMaxDistance    float64
}

// Matcher generates fuzzy candidates for token against vocabulary.
type Matcher interface {
	Name() string
	Match(token string, vocabulary []string, opts Options) []Candidate
}

var registry = map[string]Matcher{}

func register(m Matcher) {
	registry[m.Name()] = m
}

func init() {
	register(&basicMatcher{})
	register(&trigramMatcher{})
	register(&jaroWinklerMatcher{})
	register(&levenshteinMatcher{})
	register(&phoneticMatcher{})
	register(&keyboardMatcher{})
}

// Get resolves a driver by name, falling back to trigram (the spec's
// default algorithm) when name is unknown or empty.
func Get(name string) Matcher {
	if m, ok := registry[name]; ok {
		return m
	}
	return registry["trigram"]
}

// sortByScoreDesc orders candidates by descending score, then term for
// determinism, and is shared by every driver's Match implementation.
func sortByScoreDesc(cands []Candidate) []Candidate {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Term < cands[j].Term
	})
	return cands
}
