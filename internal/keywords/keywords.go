package keywords

import (
	"regexp"
	"strings"

	"hiringbuddy/internal/types"
)

// Matching is a pure text transform with no I/O. Two normalization
// passes are used: the body pass corrects extraction artifacts such as
// letter-by-letter spacing, and the token pass is strictly stricter so
// that "Node.js" and "Node . js" collapse to the same token before the
// substring test.
var (
	bodyDisallowed  = regexp.MustCompile(`[^a-z0-9+.,# ]+`)
	tokenDisallowed = regexp.MustCompile(`[^a-z0-9+]+`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// NormalizeBody lower-cases the resume text, collapses whitespace runs
// to single spaces and strips every character outside a-z, 0-9, "+",
// ".", ",", "#" and space.
func NormalizeBody(text string) string {
	text = strings.ToLower(text)
	text = whitespaceRuns.ReplaceAllString(text, " ")
	text = bodyDisallowed.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// NormalizeToken lower-cases and strips everything outside a-z, 0-9 and
// "+". Applied to each keyword and to the body-normalized text before
// the substring comparison.
func NormalizeToken(text string) string {
	text = strings.ToLower(text)
	return tokenDisallowed.ReplaceAllString(text, "")
}

// Match reports, for each keyword in input order, whether it appears in
// the resume text after both normalization passes. Original keyword
// casing is preserved for display; only the comparison is normalized.
// Deterministic: identical inputs always yield identical output.
func Match(keywordList []string, resumeText string) []types.KeywordStatus {
	haystack := NormalizeToken(NormalizeBody(resumeText))

	statuses := make([]types.KeywordStatus, len(keywordList))
	for i, keyword := range keywordList {
		token := NormalizeToken(keyword)
		statuses[i] = types.KeywordStatus{
			Keyword: keyword,
			Present: token != "" && strings.Contains(haystack, token),
		}
	}
	return statuses
}
