package resolve

import "strings"

// nonGameFragments marks library rows that are apps, media services, or test
// content rather than games. Curated; matched case-insensitively as
// substrings of the raw title.
var nonGameFragments = []string{
	"netflix",
	"youtube",
	"spotify",
	"twitch",
	"hulu",
	"disney+",
	"amazon prime video",
	"crunchyroll",
	"plex",
	"web browser",
	"internet browser",
	"media player",
	"blu-ray player",
	"dvd player",
	"demo disc",
	"kiosk demo",
	"beta test",
	"technical test",
	"server test app",
	"controller firmware",
	"avatar item",
	"soundtrack app",
}

// IsNonGame reports whether a raw title looks like non-game content. Such
// titles get title-only identities without an external lookup, so apps never
// pollute catalog matching.
func IsNonGame(rawTitle string) bool {
	lower := strings.ToLower(rawTitle)
	for _, fragment := range nonGameFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
