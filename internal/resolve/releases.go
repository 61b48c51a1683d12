package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ludex/internal/catalog"
	"ludex/internal/logging"
)

// ReleaseMerger folds a duplicate release into a winner. Satisfied by the
// dedupe merger; split out so release mapping stays testable without one.
type ReleaseMerger interface {
	MergeReleases(ctx context.Context, winnerID int64, loserIDs []int64) error
}

// ReleaseMapper resolves a platform-native id to its release, creating the
// release and its anchor mapping on first sighting.
type ReleaseMapper struct {
	store  *catalog.Store
	games  *GameResolver
	merger ReleaseMerger
	logger *slog.Logger

	// beforeAnchor runs between release creation and the mapping insert.
	// Tests use it to stage a concurrent sync winning the anchor race.
	beforeAnchor func()
}

// NewReleaseMapper builds a mapper. merger may be nil; mapping conflicts are
// then reported as errors instead of being folded in place.
func NewReleaseMapper(store *catalog.Store, games *GameResolver, merger ReleaseMerger, logger *slog.Logger) *ReleaseMapper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ReleaseMapper{store: store, games: games, merger: merger, logger: logger}
}

// Resolve returns the release id owning a platform-native id. An existing
// mapping is authoritative and skips all matching. Otherwise the title is
// resolved to a game, the (platform, game) release is found or created, and
// the mapping is anchored with insert-or-ignore semantics; if a concurrent
// sync anchored the id to a different release first, this release is folded
// into that one and the anchored release wins.
func (m *ReleaseMapper) Resolve(ctx context.Context, platform catalog.Platform, nativeID, rawTitle string) (int64, error) {
	nativeID = strings.TrimSpace(nativeID)
	if nativeID == "" {
		return 0, fmt.Errorf("native id required for %q on %s", rawTitle, platform)
	}

	mapping, err := m.store.MappingByNativeID(ctx, platform, nativeID)
	if err != nil {
		return 0, err
	}
	if mapping != nil {
		if err := m.store.TouchRelease(ctx, mapping.ReleaseID); err != nil {
			return 0, err
		}
		return mapping.ReleaseID, nil
	}

	game, err := m.games.Resolve(ctx, rawTitle, platform)
	if err != nil {
		return 0, err
	}

	release, err := m.ensureRelease(ctx, platform, game.ID, rawTitle)
	if err != nil {
		return 0, err
	}

	if m.beforeAnchor != nil {
		m.beforeAnchor()
	}

	if err := m.store.InsertMappingIgnore(ctx, platform, nativeID, release.ID); err != nil {
		return 0, err
	}
	mapping, err = m.store.MappingByNativeID(ctx, platform, nativeID)
	if err != nil {
		return 0, err
	}
	if mapping == nil {
		return 0, fmt.Errorf("mapping %s/%s vanished after insert", platform, nativeID)
	}

	if mapping.ReleaseID != release.ID {
		// A concurrent sync anchored this native id first. Its release is
		// the anchor; ours is the duplicate.
		m.logger.Info("folding release into concurrently anchored winner",
			logging.String("platform", string(platform)),
			logging.String("native_id", nativeID),
			logging.Int64("winner", mapping.ReleaseID),
			logging.Int64("loser", release.ID))
		if m.merger == nil {
			return 0, fmt.Errorf("mapping %s/%s anchored to release %d while creating release %d",
				platform, nativeID, mapping.ReleaseID, release.ID)
		}
		if err := m.merger.MergeReleases(ctx, mapping.ReleaseID, []int64{release.ID}); err != nil {
			return 0, err
		}
		return mapping.ReleaseID, nil
	}

	if err := m.store.TouchRelease(ctx, release.ID); err != nil {
		return 0, err
	}
	return release.ID, nil
}

// ensureRelease finds or creates the single release for a (platform, game)
// pair. Losing the creation race converges on the winner's row.
func (m *ReleaseMapper) ensureRelease(ctx context.Context, platform catalog.Platform, gameID int64, rawTitle string) (*catalog.Release, error) {
	release, err := m.store.ReleaseByPlatformAndGame(ctx, platform, gameID)
	if err != nil {
		return nil, err
	}
	if release != nil {
		return release, nil
	}

	fresh := &catalog.Release{
		GameID:       &gameID,
		Platform:     platform,
		DisplayTitle: strings.TrimSpace(rawTitle),
	}
	return catalog.UpsertWithRaceRecovery(
		func() (*catalog.Release, error) { return m.store.InsertRelease(ctx, fresh) },
		func() (*catalog.Release, error) {
			winner, err := m.store.ReleaseByPlatformAndGame(ctx, platform, gameID)
			if err != nil {
				return nil, err
			}
			if winner == nil {
				return nil, fmt.Errorf("release for %s game %d vanished during upsert", platform, gameID)
			}
			return winner, nil
		},
	)
}
