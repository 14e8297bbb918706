package store

import (
	"regexp"
	"strings"
	"unicode"
)

// identTokenRegex matches alphanumeric/underscore runs; SplitIdentifierTokens
// uses it to split code-identifier-shaped values (e.g. a file path or symbol
// name). Neither the analyzer nor the indexer calls SplitIdentifierTokens.
var identTokenRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// SplitIdentifierTokens splits text into camelCase/PascalCase/snake_case
// sub-tokens, lowercased, dropping fragments shorter than 2 characters.
//
// Retained from the teacher's internal/store/tokenizer.go almost verbatim
// (TokenizeCode/SplitCodeToken/SplitCamelCase): this module's analyzer
// handles natural-language text, but indexed metadata frequently carries
// code-identifier-shaped values (symbol names, file paths, route
// templates) that benefit from the same camelCase/snake_case splitting the
// teacher's code-search domain relied on.
func SplitIdentifierTokens(text string) []string {
	var tokens []string
	for _, word := range identTokenRegex.FindAllString(text, -1) {
		for _, t := range splitCodeToken(word) {
			lower := strings.ToLower(t)
			if len(lower) >= 2 {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

// splitCamelCase splits camelCase and PascalCase identifiers, e.g.
// "getUserById" -> ["get", "User", "By", "Id"], "HTTPHandler" -> ["HTTP",
// "Handler"].
func splitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}
