package dedupe

import (
	"sort"

	"ludex/internal/catalog"
)

// pickWinnerGame orders a duplicate group deterministically and returns the
// winner plus the losers. Preference: has an external id, then a real cover,
// then most recently updated, then lowest id as the stable tiebreak.
func pickWinnerGame(group []*catalog.Game) (*catalog.Game, []*catalog.Game) {
	sorted := make([]*catalog.Game, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if (a.IGDBID != nil) != (b.IGDBID != nil) {
			return a.IGDBID != nil
		}
		aCover := !catalog.IsPlaceholderCover(a.CoverURL)
		bCover := !catalog.IsPlaceholderCover(b.CoverURL)
		if aCover != bCover {
			return aCover
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
	return sorted[0], sorted[1:]
}

// pickWinnerRelease does the same for a release group. anchors maps release
// id to its external-id mapping count; anchored releases win first.
func pickWinnerRelease(group []*catalog.Release, anchors map[int64]int) (*catalog.Release, []*catalog.Release) {
	sorted := make([]*catalog.Release, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if (anchors[a.ID] > 0) != (anchors[b.ID] > 0) {
			return anchors[a.ID] > 0
		}
		aCover := !catalog.IsPlaceholderCover(a.CoverURL)
		bCover := !catalog.IsPlaceholderCover(b.CoverURL)
		if aCover != bCover {
			return aCover
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
	return sorted[0], sorted[1:]
}
