package titles

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Candidates builds the ordered, de-duplicated list of search queries for a
// raw title, most-likely-correct first. Later entries are strictly more
// aggressive rewrites; the match resolver stops at the first query that
// returns results. platformHint, when set, additionally trims a trailing
// occurrence of the hint itself (some libraries append their own name).
// Blank input yields an empty list.
func Candidates(raw, platformHint string) []string {
	normalized := Normalize(raw)
	if normalized == "" {
		return nil
	}

	withoutPlatform := StripPlatformSuffix(normalized)
	if hint := strings.TrimSpace(platformHint); hint != "" {
		withoutPlatform = trimTrailingToken(withoutPlatform, hint)
	}
	withoutBrand := StripBrandPrefix(withoutPlatform)
	editionNormalized := ExpandAbbreviations(StripEditionQualifiers(withoutBrand))

	queries := []string{
		normalized,
		withoutPlatform,
		withoutBrand,
		editionNormalized,
	}
	if isAllCaps(raw) {
		queries = append(queries, cases.Title(language.Und).String(strings.ToLower(editionNormalized)))
	}

	return dedupeQueries(queries)
}

func dedupeQueries(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, len(queries))
	for _, query := range queries {
		query = collapseWhitespace(query)
		if query == "" {
			continue
		}
		// Exact comparison: the all-caps fallback differs from its source
		// only in case and must survive.
		if _, ok := seen[query]; ok {
			continue
		}
		seen[query] = struct{}{}
		out = append(out, query)
	}
	return out
}

func trimTrailingToken(value, token string) string {
	lower := strings.ToLower(value)
	suffix := strings.ToLower(strings.TrimSpace(token))
	if suffix == "" || !strings.HasSuffix(lower, suffix) {
		return value
	}
	trimmed := collapseWhitespace(value[:len(value)-len(suffix)])
	trimmed = strings.TrimRight(trimmed, "-: ")
	if trimmed == "" {
		return value
	}
	return trimmed
}

// isAllCaps reports whether every letter in the input is uppercase and at
// least one letter is present.
func isAllCaps(value string) bool {
	sawLetter := false
	for _, r := range value {
		if !unicode.IsLetter(r) {
			continue
		}
		sawLetter = true
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return sawLetter
}
