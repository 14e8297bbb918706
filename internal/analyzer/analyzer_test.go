package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePipelineOrder(t *testing.T) {
	a := New(DefaultConfig(), nil)
	r := a.Analyze("<b>Running</b> and jumping, can't stop!", "en")
	// "and" and "can't"->"cannot"->"not" contribution filtered as stop words;
	// "running"/"jumping"/"stop" survive, stemmed.
	assert.Contains(t, r.Tokens, "run")
	assert.Contains(t, r.Tokens, "jump")
	assert.Contains(t, r.Tokens, "stop")
	assert.NotContains(t, r.Tokens, "and")
	assert.Equal(t, "<b>Running</b> and jumping, can't stop!", r.Original)
}

func TestAnalyzeDropsNumbersWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemoveNumbers = true
	a := New(cfg, nil)
	r := a.Analyze("order 12345 shipped", "en")
	assert.NotContains(t, r.Tokens, "12345")
}

func TestAnalyzeKeepsNumbersByDefault(t *testing.T) {
	a := New(DefaultConfig(), nil)
	r := a.Analyze("order 12345 shipped", "en")
	assert.Contains(t, r.Tokens, "12345")
}

func TestAnalyzeMinWordLengthFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinWordLength = 4
	a := New(cfg, nil)
	r := a.Analyze("a an ox cat dog elephant", "en")
	for _, tok := range r.Tokens {
		assert.GreaterOrEqual(t, len(tok), 4)
	}
}

func TestAnalyzeTruncatesOverMaxWordLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxWordLength = 5
	a := New(cfg, nil)
	r := a.Analyze("supercalifragilisticexpialidocious", "en")
	require.Len(t, r.Tokens, 1)
	assert.LessOrEqual(t, len(r.Tokens[0]), 5)
}

func TestAnalyzeCustomStopWords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CustomStopWords = []string{"Widget"}
	a := New(cfg, nil)
	r := a.Analyze("the widget is broken", "en")
	assert.NotContains(t, r.Tokens, "widget")
}

func TestAnalyzeDisableStopWords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableStopWords = true
	a := New(cfg, nil)
	r := a.Analyze("the cat and the hat", "en")
	assert.Contains(t, r.Tokens, "the")
	assert.Contains(t, r.Tokens, "and")
}

func TestAnalyzePreservesDuplicatesForPhraseMatching(t *testing.T) {
	a := New(DefaultConfig(), nil)
	r := a.Analyze("star wars star wars", "en")
	count := 0
	for _, tok := range r.Tokens {
		if tok == "star" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestStopWordSymmetry(t *testing.T) {
	a := New(DefaultConfig(), nil)
	stop := a.StopWords("en")
	_, isStop := stop["the"]
	require.True(t, isStop)

	indexed := a.Analyze("the quick brown fox", "en").Tokens
	queried := a.Analyze("the fox", "en").Tokens
	assert.NotContains(t, indexed, "the")
	assert.NotContains(t, queried, "the")
}

func TestUnicodeLettersRetained(t *testing.T) {
	a := New(DefaultConfig(), nil)
	r := a.Analyze("café naïve", "en")
	assert.Contains(t, r.Tokens, "café")
}

func TestEmptyInputYieldsNoTokens(t *testing.T) {
	a := New(DefaultConfig(), nil)
	r := a.Analyze("   ", "en")
	assert.Empty(t, r.Tokens)
}

func TestEnglishStemmerCommonForms(t *testing.T) {
	s := englishStemmer{}
	assert.Equal(t, "run", s.Stem("running"))
	assert.Equal(t, "cat", s.Stem("cats"))
	assert.Equal(t, "parti", s.Stem("parties"))
	assert.Equal(t, "quick", s.Stem("quickly"))
}

func TestRegistryUnknownLanguageFallsBackToIdentity(t *testing.T) {
	r := NewRegistry()
	s := r.Get("klingon")
	assert.Equal(t, "dancing", s.Stem("Dancing"))
}

func TestAnalyzeStripPunctuationFalseKeepsItAttached(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StripPunctuation = false
	cfg.Lowercase = false
	cfg.ExpandContractions = false
	cfg.DisableStopWords = true
	a := New(cfg, nil)
	r := a.Analyze("well-known, state-of-the-art", "en")
	assert.Contains(t, r.Tokens, "well-known,")
	assert.Contains(t, r.Tokens, "state-of-the-art")
}

func TestRegistryResolvesAliases(t *testing.T) {
	r := NewRegistry()
	a := r.Get("english")
	b := r.Get("en")
	assert.Same(t, a, b)
}

func TestRegistryCachesInstancesProcessWide(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register("xx", func() Stemmer {
		calls++
		return identityStemmer{lang: "xx"}
	})
	r.Get("xx")
	r.Get("xx")
	r.Get("xx")
	assert.Equal(t, 1, calls)
}
