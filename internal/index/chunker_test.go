package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextFitsInOneChunk(t *testing.T) {
	chunks := ChunkText("One sentence. Another one.", 1000, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "One sentence. Another one.", chunks[0].Content)
}

func TestChunkTextSplitsOnOverflow(t *testing.T) {
	sentence := strings.Repeat("word ", 20) + "end."
	text := sentence + " " + sentence + " " + sentence
	chunks := ChunkText(text, 80, 20)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestChunkTextOverlapSnapsToWholeWords(t *testing.T) {
	sentence1 := "The quick brown fox jumps over the lazy dog near the river bank today."
	sentence2 := "Meanwhile the cat sleeps soundly on the warm windowsill all afternoon long."
	chunks := ChunkText(sentence1+" "+sentence2, len(sentence1)+10, 20)
	require.Len(t, chunks, 2)
	// The second chunk should begin with whole words from the tail of the first,
	// never a partial word fragment.
	assert.False(t, strings.HasPrefix(chunks[1].Content, " "))
	firstWord := strings.Fields(chunks[1].Content)[0]
	assert.True(t, strings.HasSuffix(sentence1, firstWord) || strings.Contains(sentence1, firstWord))
}

func TestChunkTextOversizedSentenceBecomesOwnChunk(t *testing.T) {
	huge := strings.Repeat("a", 500)
	text := "Short lead in. " + huge + ". Short trailer."
	chunks := ChunkText(text, 100, 20)
	require.NotEmpty(t, chunks)
	found := false
	for _, c := range chunks {
		if strings.Contains(c.Content, huge) {
			found = true
			assert.Greater(t, len(c.Content), 100)
		}
	}
	assert.True(t, found, "oversized sentence must appear intact in some chunk")
}

func TestChunkTextEmptyInput(t *testing.T) {
	assert.Nil(t, ChunkText("", 100, 10))
	assert.Nil(t, ChunkText("   ", 100, 10))
}

func TestChunkTextNoOverlapWhenZero(t *testing.T) {
	sentence := strings.Repeat("word ", 20) + "end."
	text := sentence + " " + sentence
	chunks := ChunkText(text, 60, 0)
	require.Greater(t, len(chunks), 1)
}
