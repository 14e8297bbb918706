package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippetWrapsMatchedTerm(t *testing.T) {
	h := NewHighlighter("<mark>", "</mark>", 50)
	snippet := h.Snippet("the quick brown fox jumps", []string{"fox"}, 0)
	assert.Contains(t, snippet, "<mark>fox</mark>")
}

func TestSnippetNoMatchReturnsEmpty(t *testing.T) {
	h := NewHighlighter("<mark>", "</mark>", 50)
	assert.Equal(t, "", h.Snippet("the quick brown fox jumps", []string{"zzz"}, 0))
}

func TestSnippetAddsEllipsisWhenTruncated(t *testing.T) {
	h := NewHighlighter("<mark>", "</mark>", 50)
	long := strings.Repeat("padding ", 30) + "needle" + strings.Repeat(" more", 30)
	snippet := h.Snippet(long, []string{"needle"}, 20)
	assert.True(t, strings.HasPrefix(snippet, "…"))
	assert.True(t, strings.HasSuffix(snippet, "…"))
	assert.Contains(t, snippet, "<mark>needle</mark>")
}

func TestSnippetNoEllipsisWhenFullFieldFits(t *testing.T) {
	h := NewHighlighter("<mark>", "</mark>", 50)
	snippet := h.Snippet("short fox text", []string{"fox"}, 1000)
	assert.False(t, strings.Contains(snippet, "…"))
}

func TestSnippetHighlightsMultipleTerms(t *testing.T) {
	h := NewHighlighter("<mark>", "</mark>", 50)
	snippet := h.Snippet("red widgets and blue widgets", []string{"red", "blue"}, 0)
	assert.Contains(t, snippet, "<mark>red</mark>")
	assert.Contains(t, snippet, "<mark>blue</mark>")
}
