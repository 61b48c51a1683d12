package titles

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)

	// Trademark and copyright glyphs, ASCII spellings included.
	trademarkReplacer = strings.NewReplacer(
		"™", "", // trade mark sign
		"®", "", // registered sign
		"©", "", // copyright sign
		"(TM)", "",
		"(tm)", "",
		"(R)", "",
		"(r)", "",
		"(C)", "",
		"(c)", "",
	)

	apostropheReplacer = strings.NewReplacer(
		"’", "'",
		"‘", "'",
		"`", "'",
	)

	separatorReplacer = strings.NewReplacer(
		"–", "-", // en dash
		"—", "-", // em dash
		"•", " ", // bullet
		"·", " ", // middle dot
		"_", " ",
		"&", " and ",
	)
)

// mashCorrections are curated literal fixes for titles whose run-together
// form survives de-mashing (uppercase runs carry no case boundary to split).
var mashCorrections = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\bPGATOUR\b`), "PGA Tour"},
	{regexp.MustCompile(`\bNBAJAM\b`), "NBA Jam"},
	{regexp.MustCompile(`\bMLBTHESHOW\b`), "MLB The Show"},
	{regexp.MustCompile(`\bNCAAFOOTBALL\b`), "NCAA Football"},
	{regexp.MustCompile(`\bWWERAW\b`), "WWE Raw"},
}

// abbreviationExpansions apply to search candidates only, never to stored
// canonical titles.
var abbreviationExpansions = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bGOTY\b`), "Game of the Year"},
	{regexp.MustCompile(`(?i)\bDir\.?\s+Cut\b`), "Director's Cut"},
	{regexp.MustCompile(`(?i)\bCollect\.\s`), "Collection "},
	{regexp.MustCompile(`(?i)\bVol\.\s*(\d)`), "Volume $1"},
}

var platformSuffixPattern = regexp.MustCompile(`(?i)\s*(?:[-:]\s*|\(\s*|\[\s*)?(?:for\s+)?(?:PS5|PS4|PS3|PS2|PSP|PS\s*Vita|PlayStation\s*[2-5]?|Xbox\s*(?:360|One|Series\s*[XS]?)?|Nintendo\s+Switch\s*2?|Wii\s*U?|Game\s*Boy(?:\s+(?:Advance|Color))?|GameCube|N64|3DS|Windows|Win|PC|Steam)(?:\s+(?:Edition|Version))?\s*(?:\)|\])?\s*$`)

var brandPrefixPattern = regexp.MustCompile(`(?i)^\s*(?:Arcade\s+Archives|ACA\s+NEOGEO|SEGA\s+AGES|Capcom\s+Arcade\s+Stadium)[:\s]+`)

var editionQualifierPattern = regexp.MustCompile(`(?i)\s*[-:]?\s*(?:(?:game\s+of\s+the\s+year|goty|definitive|deluxe|ultimate|complete|enhanced|gold|premium|legendary|anniversary|special|limited|collector'?s?|standard|digital)\s+edition|remastered|remaster|hd\s+remaster|director'?s?\s+cut)\s*$`)

var starringQualifierPattern = regexp.MustCompile(`(?i)\s+starring\s+.+$`)

// Normalize cleans a raw platform title for use as a search candidate:
// trademark glyphs stripped, mashed words split, curated mash corrections
// applied, separators normalized, whitespace collapsed. Destructive rewrites
// (platform suffixes, brand prefixes, edition qualifiers) are left to the
// candidate generator so each stays a separate, more aggressive variant.
func Normalize(raw string) string {
	value := trademarkReplacer.Replace(raw)
	value = apostropheReplacer.Replace(value)
	value = deMash(value)
	for _, correction := range mashCorrections {
		value = correction.pattern.ReplaceAllString(value, correction.replacement)
	}
	value = separatorReplacer.Replace(value)
	return collapseWhitespace(value)
}

// CanonicalKey derives the string compared for uniqueness in the catalog:
// trademark-stripped, apostrophe-normalized, whitespace-collapsed, lowercased,
// otherwise untouched. Deliberately much gentler than Normalize; two titles
// must agree on this key to be considered the same stored identity.
func CanonicalKey(raw string) string {
	value := trademarkReplacer.Replace(raw)
	value = apostropheReplacer.Replace(value)
	value = collapseWhitespace(value)
	return strings.ToLower(value)
}

// StripPlatformSuffix removes a trailing platform name or bracketed platform
// tag.
func StripPlatformSuffix(value string) string {
	stripped := platformSuffixPattern.ReplaceAllString(value, "")
	stripped = collapseWhitespace(stripped)
	if stripped == "" {
		return collapseWhitespace(value)
	}
	return stripped
}

// StripBrandPrefix removes a leading re-release brand.
func StripBrandPrefix(value string) string {
	stripped := brandPrefixPattern.ReplaceAllString(value, "")
	stripped = collapseWhitespace(stripped)
	if stripped == "" {
		return collapseWhitespace(value)
	}
	return stripped
}

// StripEditionQualifiers removes trailing edition, remaster, and
// "starring X" qualifiers.
func StripEditionQualifiers(value string) string {
	stripped := starringQualifierPattern.ReplaceAllString(value, "")
	stripped = editionQualifierPattern.ReplaceAllString(stripped, "")
	stripped = collapseWhitespace(stripped)
	if stripped == "" {
		return collapseWhitespace(value)
	}
	return stripped
}

// ExpandAbbreviations rewrites common shorthand. Search candidates only.
func ExpandAbbreviations(value string) string {
	for _, expansion := range abbreviationExpansions {
		value = expansion.pattern.ReplaceAllString(value, expansion.replacement)
	}
	return collapseWhitespace(value)
}

// SplitYear extracts a release year from a raw title: a trailing four-digit
// year, a trailing two-digit year (the annual-franchise idiom), or a 2Kxx
// token. Returns the title with a trailing year removed and the year, or the
// input and zero.
func SplitYear(raw string) (string, int) {
	trimmed := collapseWhitespace(raw)
	if trimmed == "" {
		return "", 0
	}

	if matches := trailingFourDigitYear.FindStringSubmatch(trimmed); len(matches) == 2 {
		year, err := strconv.Atoi(matches[1])
		if err == nil && year >= 1958 && year <= 2100 {
			cleaned := collapseWhitespace(trailingFourDigitYear.ReplaceAllString(trimmed, ""))
			if cleaned != "" {
				return cleaned, year
			}
		}
	}

	if matches := trailingTwoDigitYear.FindStringSubmatch(trimmed); len(matches) == 2 {
		if year := expandTwoDigitYear(matches[1]); year != 0 {
			// The two-digit suffix stays in the title; annualized
			// franchises are named that way.
			return trimmed, year
		}
	}

	if matches := twoKYearPattern.FindStringSubmatch(trimmed); len(matches) == 2 {
		suffix, err := strconv.Atoi(matches[1])
		if err == nil {
			return trimmed, 2000 + suffix
		}
	}

	return trimmed, 0
}

var (
	trailingFourDigitYear = regexp.MustCompile(`\s*(?:\(|\b)(\d{4})\)?\s*$`)
	trailingTwoDigitYear  = regexp.MustCompile(`\s('?\d{2})$`)
	twoKYearPattern       = regexp.MustCompile(`(?i)\b2K(\d{1,2})\b`)
)

func expandTwoDigitYear(value string) int {
	value = strings.TrimPrefix(value, "'")
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	pivot := time.Now().Year()%100 + 2
	if year <= pivot {
		return 2000 + year
	}
	return 1900 + year
}

// deMash inserts spaces at lower-to-upper, letter-to-digit, and
// digit-to-letter boundaries, protecting numeric-suffix idioms like "2K9".
func deMash(value string) string {
	runes := []rune(value)
	var b strings.Builder
	b.Grow(len(value) + 8)
	for i, r := range runes {
		if i > 0 && boundaryAt(runes, i) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func boundaryAt(runes []rune, i int) bool {
	prev := runes[i-1]
	r := runes[i]
	switch {
	case unicode.IsLower(prev) && unicode.IsUpper(r):
		return true
	case unicode.IsLetter(prev) && unicode.IsDigit(r):
		// Short letter runs against a digit are idioms, not mashed words:
		// "F1", the K in "2K9", "PS4".
		return letterRunEndingAt(runes, i-1) > 2
	case unicode.IsDigit(prev) && unicode.IsLetter(r):
		// Same protection forward: "3D", "4X", "3DS".
		return letterRunStartingAt(runes, i) > 2
	}
	return false
}

func letterRunEndingAt(runes []rune, i int) int {
	count := 0
	for j := i; j >= 0 && unicode.IsLetter(runes[j]); j-- {
		count++
	}
	return count
}

func letterRunStartingAt(runes []rune, i int) int {
	count := 0
	for j := i; j < len(runes) && unicode.IsLetter(runes[j]); j++ {
		count++
	}
	return count
}

func collapseWhitespace(value string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(value, " "))
}
