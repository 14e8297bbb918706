package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMatchExpressionSingleTerm(t *testing.T) {
	assert.Equal(t, "widget", BuildMatchExpression([]string{"widget"}))
}

func TestBuildMatchExpressionPhraseORsIndividualTerms(t *testing.T) {
	expr := BuildMatchExpression([]string{"red", "widget"})
	assert.Equal(t, `("red widget" OR red OR widget)`, expr)
}

func TestBuildMatchExpressionEmpty(t *testing.T) {
	assert.Equal(t, "", BuildMatchExpression(nil))
}

func TestNormalizeLowercasesAndStripsPunctuation(t *testing.T) {
	assert.Equal(t, "acme corp", normalize("Acme, Corp."))
	assert.Equal(t, "acme corp", normalize("  ACME   CORP  "))
}

func TestContainsPhraseCaseInsensitive(t *testing.T) {
	assert.True(t, containsPhrase("The Red Widget Company", "red widget"))
	assert.False(t, containsPhrase("The Blue Widget Company", "red widget"))
}
