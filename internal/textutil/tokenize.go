package textutil

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Tokenize splits text into lowercase tokens, filtering short tokens.
// Purely numeric tokens are kept regardless of length so model and lot
// fragments like "12" survive.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if len(token) < 3 && !isNumeric(token) {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// KeywordBlob produces the deduplicated, sorted, space-joined token blob
// persisted as a recall record's search_keywords field.
func KeywordBlob(parts ...string) string {
	seen := make(map[string]struct{})
	for _, part := range parts {
		for _, token := range Tokenize(part) {
			seen[token] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return ""
	}
	tokens := make([]string, 0, len(seen))
	for token := range seen {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// DisplayTitle normalizes a product name for presentation.
func DisplayTitle(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return trimmed
	}
	return cases.Title(language.Und).String(strings.ToLower(trimmed))
}

func isNumeric(token string) bool {
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return token != ""
}
