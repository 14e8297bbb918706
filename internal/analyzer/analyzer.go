// Package analyzer deterministically transforms text into an ordered list
// of index/query terms: HTML strip, contraction expansion, lowercasing,
// tokenization, numeric filtering, length filtering, stop-word removal,
// and stemming, per spec §4.1.
//
// Grounded on the teacher's internal/store/tokenizer.go regex-tokenize +
// lowercase + stop-word-filter pipeline, generalized from code-identifier
// splitting to natural-language analysis; no NL tokenizer library appears
// anywhere in the reference corpus, so this stays stdlib (regexp, strings,
// unicode), same as the teacher's own tokenizer.
package analyzer

import (
	"regexp"
	"strings"
	"unicode"
)

// Config enumerates the analyzer knobs from spec §4.1.
type Config struct {
	MinWordLength      int
	MaxWordLength      int
	RemoveNumbers      bool
	Lowercase          bool
	StripHTML          bool
	StripPunctuation   bool
	ExpandContractions bool
	DisableStopWords   bool
	CustomStopWords    []string
}

// DefaultConfig mirrors the defaults named in spec §4.1.
func DefaultConfig() Config {
	return Config{
		MinWordLength:      2,
		MaxWordLength:      50,
		RemoveNumbers:      false,
		Lowercase:          true,
		StripHTML:          true,
		StripPunctuation:   true,
		ExpandContractions: true,
		DisableStopWords:   false,
	}
}

// Result is the Analyzer's output: the ordered term sequence (duplicates
// preserved, needed downstream for phrase handling) and the original text.
type Result struct {
	Tokens   []string
	Original string
}

// Analyzer is immutable after construction and safe for concurrent use by
// any number of Indexers/SearchEngines that share it.
type Analyzer struct {
	cfg      Config
	registry *Registry
	stop     map[string]stopWordSet
	custom   map[string]struct{}
}

type stopWordSet map[string]struct{}

// New builds an Analyzer with the given config and a fresh stemmer
// registry. Pass nil for registry to get a default one.
func New(cfg Config, registry *Registry) *Analyzer {
	if registry == nil {
		registry = NewRegistry()
	}
	custom := make(map[string]struct{}, len(cfg.CustomStopWords))
	for _, w := range cfg.CustomStopWords {
		custom[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Analyzer{
		cfg:      cfg,
		registry: registry,
		stop:     builtinStopWords(),
		custom:   custom,
	}
}

// Registry exposes the analyzer's stemmer registry so callers (e.g. the
// Facade) can register additional languages.
func (a *Analyzer) Registry() *Registry { return a.registry }

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return htmlTagRegex.ReplaceAllString(s, " ")
}

// contractions covers the common English contractions named in spec §4.1.
// English-only, applied before tokenization so the split halves become
// independent tokens.
var contractions = []struct{ from, to string }{
	{"won't", "will not"},
	{"can't", "cannot"},
	{"shan't", "shall not"},
	{"n't", " not"},
	{"'re", " are"},
	{"'s", " is"},
	{"'d", " would"},
	{"'ll", " will"},
	{"'ve", " have"},
	{"'m", " am"},
}

func expandContractions(s string) string {
	lower := strings.ToLower(s)
	for _, c := range contractions {
		if !strings.Contains(lower, c.from) {
			continue
		}
		s = replaceCaseInsensitive(s, c.from, c.to)
		lower = strings.ToLower(s)
	}
	return s
}

func replaceCaseInsensitive(s, old, new string) string {
	var b strings.Builder
	lowerS := strings.ToLower(s)
	lowerOld := strings.ToLower(old)
	for {
		idx := strings.Index(lowerS, lowerOld)
		if idx < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:idx])
		b.WriteString(new)
		s = s[idx+len(old):]
		lowerS = lowerS[idx+len(old):]
	}
	return b.String()
}

// tokenize splits on non-alphanumeric boundaries, retaining letters from
// any script (unicode.IsLetter) and digits, per spec's "tokenize on
// non-alphanumeric boundaries (retaining letters in any script)". When
// stripPunctuation is false, punctuation is kept attached to its word
// instead, and only whitespace splits tokens.
func tokenize(s string, stripPunctuation bool) []string {
	if !stripPunctuation {
		return strings.Fields(s)
	}

	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(tok) > 0
}

// Analyze runs the full pipeline and returns the ordered term sequence for
// text, using lang's stemmer (or the identity stemmer if lang is unknown).
func (a *Analyzer) Analyze(text, lang string) Result {
	original := text
	s := text

	if a.cfg.StripHTML {
		s = stripHTML(s)
	}
	if a.cfg.ExpandContractions {
		s = expandContractions(s)
	}
	if a.cfg.Lowercase {
		s = strings.ToLower(s)
	}

	raw := tokenize(s, a.cfg.StripPunctuation)

	stemmer := a.registry.Get(lang)
	stop := a.stopWordsFor(lang)

	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if a.cfg.RemoveNumbers && isNumeric(tok) {
			continue
		}
		if a.cfg.MaxWordLength > 0 && len(tok) > a.cfg.MaxWordLength {
			tok = tok[:a.cfg.MaxWordLength]
		}
		if len(tok) < a.cfg.MinWordLength {
			continue
		}
		if !a.cfg.DisableStopWords && a.isStopWord(tok, stop) {
			continue
		}
		out = append(out, stemmer.Stem(tok))
	}

	return Result{Tokens: out, Original: original}
}

func (a *Analyzer) isStopWord(tok string, langStop stopWordSet) bool {
	lower := strings.ToLower(tok)
	if _, ok := langStop[lower]; ok {
		return true
	}
	_, ok := a.custom[lower]
	return ok
}

func (a *Analyzer) stopWordsFor(lang string) stopWordSet {
	canon := canonicalLanguage(lang)
	if set, ok := a.stop[canon]; ok {
		return set
	}
	return a.stop["en"]
}

// StopWords returns the effective stop-word set (language defaults union
// custom words) for lang, exposed so callers can symmetry-check indexed
// terms against query terms per spec testable property 8.
func (a *Analyzer) StopWords(lang string) map[string]struct{} {
	base := a.stopWordsFor(lang)
	out := make(map[string]struct{}, len(base)+len(a.custom))
	for w := range base {
		out[w] = struct{}{}
	}
	for w := range a.custom {
		out[w] = struct{}{}
	}
	return out
}
