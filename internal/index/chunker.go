package index

import (
	"regexp"
	"strings"
)

// sentenceBoundaryRegex matches a sentence-ending punctuation mark followed
// by whitespace. The match includes the punctuation; splitSentences keeps
// it with the sentence it ends and discards only the whitespace.
var sentenceBoundaryRegex = regexp.MustCompile(`(?:[.!?])\s+`)

// Chunk is one piece of a long field value after chunking, carrying enough
// context to build its chunk document (spec §4.2 steps 4-5).
type Chunk struct {
	Index   int // 0-based chunk number, used in the "<parent>#chunkN" id
	Content string
}

// ChunkText splits content into chunks of at most chunkSize bytes using
// greedy sentence-boundary packing: sentences accumulate into the current
// chunk until adding the next one would overflow, at which point the chunk
// is emitted and the next one is seeded with a trailing overlap snapped to
// whole words. The sentence that follows an overlap seed is added without
// re-checking the size, so such a chunk can exceed chunkSize by up to the
// overlap length plus its separating spaces. A single sentence longer than
// chunkSize becomes its own chunk and is never split further.
//
// Grounded on the teacher's internal/chunk/markdown_chunker.go
// splitLargeSection/chunkByParagraphs: the same greedy
// accumulate-until-overflow loop over a paragraph list, generalized here
// from markdown paragraphs to the sentence-ending-punctuation split this
// spec calls for, and extended with the word-snapped trailing-overlap rule
// the teacher's chunker does not need (markdown sections do not overlap).
func ChunkText(content string, chunkSize, chunkOverlap int) []Chunk {
	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Content: trimmed})
		}
		current.Reset()
	}

	for _, sentence := range sentences {
		if len(sentence) > chunkSize {
			// Doesn't fit anywhere; flush what's pending, emit it whole.
			flush()
			chunks = append(chunks, Chunk{Index: len(chunks), Content: sentence})
			continue
		}

		if current.Len() > 0 && current.Len()+1+len(sentence) > chunkSize {
			overlap := trailingOverlap(current.String(), chunkOverlap)
			flush()
			if overlap != "" {
				current.WriteString(overlap)
				current.WriteByte(' ')
			}
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()

	return chunks
}

// splitSentences splits content on sentence boundaries, keeping the
// terminating punctuation attached to the sentence it ends (RE2 has no
// lookbehind, so the boundary is matched as punctuation+whitespace and
// only the whitespace is discarded), and dropping empty fragments left
// over from leading/trailing whitespace.
func splitSentences(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	matches := sentenceBoundaryRegex.FindAllStringIndex(trimmed, -1)
	var out []string
	start := 0
	for _, m := range matches {
		// m[0] is the punctuation mark itself; keep it, drop the whitespace run.
		if sentence := strings.TrimSpace(trimmed[start : m[0]+1]); sentence != "" {
			out = append(out, sentence)
		}
		start = m[1]
	}
	if tail := strings.TrimSpace(trimmed[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// trailingOverlap returns the last overlapBytes of s, snapped forward to
// the next whole-word boundary so the overlap never starts mid-word.
func trailingOverlap(s string, overlapBytes int) string {
	if overlapBytes <= 0 || len(s) == 0 {
		return ""
	}
	start := len(s) - overlapBytes
	if start < 0 {
		start = 0
	}
	// Snap forward past any partial word at the cut point.
	for start < len(s) && s[start] != ' ' {
		start++
	}
	tail := strings.TrimSpace(s[start:])
	return tail
}
