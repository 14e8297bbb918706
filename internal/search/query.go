package search

import (
	"strings"
)

// BuildMatchExpression builds the FTS match expression for terms per spec
// §4.4 step 3: for a single term, the bare term; for multiple terms, the
// quoted phrase OR'd with each individual term, so the FTS engine returns
// both phrase matches and any-token matches in one query. Both kinds of
// match get the same weight here (SQLite's bm25() weights columns, not
// match clauses); the only phrase preference is applied in Go by
// scoring.go's per-field match quality, 0.85 for a phrase inside the field
// against 0.7 for any-token matches. There is no 15x phrase factor.
func BuildMatchExpression(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	if len(terms) == 1 {
		return terms[0]
	}

	phrase := strings.Join(terms, " ")
	parts := make([]string, 0, len(terms)+1)
	parts = append(parts, `"`+phrase+`"`)
	parts = append(parts, terms...)
	return "(" + strings.Join(parts, " OR ") + ")"
}

// normalize lowercases s and strips punctuation/collapses whitespace, used
// to compare field values against the query for the exact-match bonus.
func normalize(s string) string {
	var b strings.Builder
	lastWasSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasSpace = false
		default:
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// containsPhrase reports whether phrase (case-insensitive) appears as a
// substring of fieldValue.
func containsPhrase(fieldValue, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(phrase))
}
