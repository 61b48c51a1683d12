package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the external service a release or native id belongs to.
type Platform string

const (
	PlatformSteam             Platform = "steam"
	PlatformPSN               Platform = "psn"
	PlatformXbox              Platform = "xbox"
	PlatformRetroAchievements Platform = "retroachievements"
)

var allPlatforms = []Platform{
	PlatformSteam,
	PlatformPSN,
	PlatformXbox,
	PlatformRetroAchievements,
}

var platformSet = func() map[Platform]struct{} {
	set := make(map[Platform]struct{}, len(allPlatforms))
	for _, platform := range allPlatforms {
		set[platform] = struct{}{}
	}
	return set
}()

// Platforms returns every known platform key.
func Platforms() []Platform {
	out := make([]Platform, len(allPlatforms))
	copy(out, allPlatforms)
	return out
}

// ParsePlatform validates a platform key supplied by a caller.
func ParsePlatform(value string) (Platform, error) {
	platform := Platform(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := platformSet[platform]; !ok {
		return "", fmt.Errorf("unknown platform %q", value)
	}
	return platform, nil
}

// Cover provenance tags. A cover sourced from the external catalog is
// permanent; anything else may be replaced by better data.
const (
	CoverSourceCatalog  = "igdb"
	CoverSourcePlatform = "platform"
)

var placeholderCoverFragments = []string{
	"placeholder",
	"no_cover",
	"nocover",
	"missing_cover",
	"default_cover",
	"image_not_available",
}

// IsPlaceholderCover reports whether a cover URL is empty or a known
// stand-in image.
func IsPlaceholderCover(url string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(url))
	if trimmed == "" {
		return true
	}
	for _, fragment := range placeholderCoverFragments {
		if strings.Contains(trimmed, fragment) {
			return true
		}
	}
	return false
}

// CoverReplaceable reports whether a stored cover may be overwritten. Covers
// that came from the external catalog are kept; everything else is a guess.
func CoverReplaceable(url, source string) bool {
	if IsPlaceholderCover(url) {
		return true
	}
	return source != CoverSourceCatalog
}

// Game is the canonical, platform-independent identity of a title.
type Game struct {
	ID               int64
	CanonicalTitle   string
	TitleKey         string
	IGDBID           *int64
	Summary          string
	Genres           string
	Developer        string
	Publisher        string
	FirstReleaseYear int
	CoverURL         string
	CoverSource      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Release is a platform-specific SKU of a Game.
type Release struct {
	ID            int64
	GameID        *int64
	Platform      Platform
	PlatformLabel string
	DisplayTitle  string
	CoverURL      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastSyncedAt  *time.Time
}

// ExternalIDMapping anchors a platform-native id to a release. Once written it
// is only ever re-pointed by an explicit merge.
type ExternalIDMapping struct {
	Platform  Platform
	NativeID  string
	ReleaseID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LibraryEntry records one user's ownership and progress for a release. The
// engine moves these rows during merges but does not otherwise own them.
type LibraryEntry struct {
	ID                 int64
	UserID             string
	ReleaseID          int64
	PlaytimeMinutes    int
	AchievementsEarned int
	AchievementsTotal  int
	LastPlayedAt       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
