package analyzer

// builtinStopWords returns the per-language default stop-word sets.
// Grounded on the teacher's DefaultCodeStopWords list shape
// (internal/store/types.go), generalized from a code-identifier list to a
// natural-language English default plus minimal French/German/Spanish
// function-word lists (enough to exercise the per-language lookup; full
// per-language corpora are domain data outside this spec's scope).
func builtinStopWords() map[string]stopWordSet {
	return map[string]stopWordSet{
		"en": toSet([]string{
			"a", "an", "and", "are", "as", "at", "be", "but", "by",
			"for", "if", "in", "into", "is", "it", "no", "not", "of",
			"on", "or", "such", "that", "the", "their", "then", "there",
			"these", "they", "this", "to", "was", "will", "with", "from",
			"has", "have", "had", "do", "does", "did", "can", "cannot",
			"could", "should", "would", "may", "might", "must", "shall",
			"i", "you", "he", "she", "we", "them", "his", "her", "its",
			"our", "your", "am", "were", "been", "being",
		}),
		"fr": toSet([]string{
			"le", "la", "les", "un", "une", "des", "et", "est", "dans",
			"de", "du", "en", "que", "qui", "pour", "sur", "avec", "pas",
		}),
		"de": toSet([]string{
			"der", "die", "das", "und", "ist", "ein", "eine", "in",
			"von", "den", "mit", "auf", "zu", "nicht",
		}),
		"es": toSet([]string{
			"el", "la", "los", "las", "un", "una", "y", "es", "en",
			"de", "que", "para", "con", "por", "no",
		}),
	}
}

func toSet(words []string) stopWordSet {
	m := make(stopWordSet, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
