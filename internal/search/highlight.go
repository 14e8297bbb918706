package search

import (
	"sort"
	"strings"
)

// match is one located occurrence of a query term in a field value.
type match struct {
	start, end int
}

// Highlighter wraps query term occurrences in configured tags and extracts
// a snippet centered on the first hit, per spec §4.4 "Highlighting".
type Highlighter struct {
	tag, tagClose string
	snippetLength int
}

// NewHighlighter builds a Highlighter using tag/tagClose (e.g. "<mark>",
// "</mark>") and a default snippet length in characters.
func NewHighlighter(tag, tagClose string, snippetLength int) *Highlighter {
	return &Highlighter{tag: tag, tagClose: tagClose, snippetLength: snippetLength}
}

// Snippet locates every occurrence of terms in fieldValue, centers a
// window of length characters (falling back to h.snippetLength when
// length <= 0) on the first hit, snaps a truncated window inward to
// whitespace so no word is cut, wraps each occurrence inside the window
// with the configured tags, and prepends/appends an ellipsis when the
// window is a truncation of the full field value.
func (h *Highlighter) Snippet(fieldValue string, terms []string, length int) string {
	if fieldValue == "" || len(terms) == 0 {
		return ""
	}
	if length <= 0 {
		length = h.snippetLength
	}

	matches := findMatches(fieldValue, terms)
	if len(matches) == 0 {
		return ""
	}

	first := matches[0]
	windowStart, windowEnd := centerWindow(len(fieldValue), first.start, first.end, length)
	// Snap a truncated window inward to whitespace so it neither starts nor
	// ends mid-word; the first hit always stays inside the window.
	if windowStart > 0 && windowStart < first.start && strings.IndexByte(" \t\n", fieldValue[windowStart-1]) < 0 {
		if i := strings.IndexAny(fieldValue[windowStart:first.start], " \t\n"); i >= 0 {
			windowStart += i + 1
		}
	}
	if windowEnd < len(fieldValue) && windowEnd > first.end && strings.IndexByte(" \t\n", fieldValue[windowEnd]) < 0 {
		if i := strings.LastIndexAny(fieldValue[first.end:windowEnd], " \t\n"); i >= 0 {
			windowEnd = first.end + i
		}
	}

	var b strings.Builder
	if windowStart > 0 {
		b.WriteString("…")
	}

	cursor := windowStart
	for _, m := range matches {
		if m.start < windowStart || m.end > windowEnd {
			continue
		}
		b.WriteString(fieldValue[cursor:m.start])
		b.WriteString(h.tag)
		b.WriteString(fieldValue[m.start:m.end])
		b.WriteString(h.tagClose)
		cursor = m.end
	}
	b.WriteString(fieldValue[cursor:windowEnd])

	if windowEnd < len(fieldValue) {
		b.WriteString("…")
	}

	return strings.TrimSpace(b.String())
}

// findMatches locates every case-insensitive occurrence of any term in
// fieldValue, merging overlaps and sorted by position.
func findMatches(fieldValue string, terms []string) []match {
	lower := strings.ToLower(fieldValue)
	var all []match
	for _, term := range terms {
		term = strings.TrimSuffix(term, "*")
		if term == "" {
			continue
		}
		lt := strings.ToLower(term)
		from := 0
		for {
			idx := strings.Index(lower[from:], lt)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(term)
			all = append(all, match{start: start, end: end})
			from = end
		}
	}
	if len(all) == 0 {
		return nil
	}
	sort.Slice(all, func(i, j int) bool { return all[i].start < all[j].start })
	return mergeOverlaps(all)
}

func mergeOverlaps(sorted []match) []match {
	out := []match{sorted[0]}
	for _, m := range sorted[1:] {
		last := &out[len(out)-1]
		if m.start <= last.end {
			if m.end > last.end {
				last.end = m.end
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

// centerWindow computes a [start, end) byte window of size length over a
// field of size fieldLen, centered as closely as possible on [hitStart,
// hitEnd). Snippet does the whitespace snapping afterwards.
func centerWindow(fieldLen, hitStart, hitEnd, length int) (int, int) {
	if length >= fieldLen {
		return 0, fieldLen
	}

	hitCenter := (hitStart + hitEnd) / 2
	start := hitCenter - length/2
	if start < 0 {
		start = 0
	}
	end := start + length
	if end > fieldLen {
		end = fieldLen
		start = end - length
		if start < 0 {
			start = 0
		}
	}

	return start, end
}
