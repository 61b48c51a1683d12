package dedupe

import (
	"context"
	"log/slog"
	"strings"

	"ludex/internal/catalog"
	"ludex/internal/logging"
)

// Merger holds the low-level merge primitives. Both the batch jobs and the
// sync-time mapping-conflict fold go through it.
type Merger struct {
	store  *catalog.Store
	logger *slog.Logger
}

// NewMerger builds a merger over a store.
func NewMerger(store *catalog.Store, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Merger{store: store, logger: logger}
}

// MergeReleases folds loser releases into the winner: library entries move
// (dropping per-user duplicates), external-id mappings re-point, losers are
// deleted. Losers that no longer exist are skipped, so replaying a merge is
// harmless.
func (m *Merger) MergeReleases(ctx context.Context, winnerID int64, loserIDs []int64) error {
	var discard Report
	return m.mergeReleases(ctx, winnerID, loserIDs, &discard)
}

func (m *Merger) mergeReleases(ctx context.Context, winnerID int64, loserIDs []int64, report *Report) error {
	winner, err := m.store.ReleaseByID(ctx, winnerID)
	if err != nil {
		return err
	}

	for _, loserID := range loserIDs {
		if loserID == winnerID {
			continue
		}
		loser, err := m.store.ReleaseByID(ctx, loserID)
		if err != nil {
			return err
		}
		if loser == nil {
			continue
		}

		if winner != nil && catalog.IsPlaceholderCover(winner.CoverURL) && !catalog.IsPlaceholderCover(loser.CoverURL) {
			if err := m.store.UpdateReleaseCover(ctx, winnerID, loser.CoverURL); err != nil {
				return err
			}
			winner.CoverURL = loser.CoverURL
		}

		moved, dropped, err := m.store.MoveLibraryEntries(ctx, loserID, winnerID)
		if err != nil {
			return err
		}
		report.EntriesMoved += moved
		report.EntriesDropped += dropped

		repointed, err := m.store.RepointMappings(ctx, loserID, winnerID)
		if err != nil {
			return err
		}
		report.MappingsMoved += repointed

		deleted, err := m.store.DeleteReleases(ctx, []int64{loserID})
		if err != nil {
			return err
		}
		report.ReleasesDeleted += deleted

		m.logger.Info("merged release",
			logging.Int64("winner", winnerID),
			logging.Int64("loser", loserID),
			logging.Int64("entries_moved", moved),
			logging.Int64("entries_dropped", dropped),
			logging.Int64("mappings_moved", repointed))
	}
	return nil
}

// mergeGameGroup folds a group of games sharing an external id into its
// winner. Loser releases re-point under the winner; when the winner already
// has a release on that platform, the two releases merge instead. Loser
// metadata fills gaps in the winner before deletion.
func (m *Merger) mergeGameGroup(ctx context.Context, group []*catalog.Game, report *Report) error {
	winner, losers := pickWinnerGame(group)
	report.Groups = append(report.Groups, gameMergeGroup(winner, losers))

	if coalesceGameMetadata(winner, losers) {
		if err := m.store.UpdateGame(ctx, winner); err != nil {
			return err
		}
	}

	loserIDs := make([]int64, 0, len(losers))
	for _, loser := range losers {
		releases, err := m.store.ReleasesByGame(ctx, loser.ID)
		if err != nil {
			return err
		}
		for _, release := range releases {
			err := m.store.RepointReleaseGame(ctx, release.ID, winner.ID)
			if err == nil {
				report.ReleasesMoved++
				continue
			}
			if !catalog.IsUniqueViolation(err) {
				return err
			}
			existing, lookupErr := m.store.ReleaseByPlatformAndGame(ctx, release.Platform, winner.ID)
			if lookupErr != nil {
				return lookupErr
			}
			if existing == nil {
				return err
			}
			if err := m.mergeReleases(ctx, existing.ID, []int64{release.ID}, report); err != nil {
				return err
			}
		}
		loserIDs = append(loserIDs, loser.ID)
	}

	deleted, err := m.store.DeleteGames(ctx, loserIDs)
	if err != nil {
		return err
	}
	report.GamesDeleted += deleted

	m.logger.Info("merged game group",
		logging.Int64("winner", winner.ID),
		logging.Int("losers", len(loserIDs)))
	return nil
}

// coalesceGameMetadata copies loser metadata into the winner's empty fields.
// Returns true when anything changed.
func coalesceGameMetadata(winner *catalog.Game, losers []*catalog.Game) bool {
	changed := false
	for _, loser := range losers {
		if winner.Summary == "" && loser.Summary != "" {
			winner.Summary = loser.Summary
			changed = true
		}
		if winner.Genres == "" && loser.Genres != "" {
			winner.Genres = loser.Genres
			changed = true
		}
		if winner.Developer == "" && loser.Developer != "" {
			winner.Developer = loser.Developer
			changed = true
		}
		if winner.Publisher == "" && loser.Publisher != "" {
			winner.Publisher = loser.Publisher
			changed = true
		}
		if winner.FirstReleaseYear == 0 && loser.FirstReleaseYear != 0 {
			winner.FirstReleaseYear = loser.FirstReleaseYear
			changed = true
		}
		if !catalog.IsPlaceholderCover(loser.CoverURL) && catalog.CoverReplaceable(winner.CoverURL, winner.CoverSource) {
			// Take the loser's cover when it upgrades provenance or fills a
			// placeholder; never replace a catalog cover.
			if strings.EqualFold(loser.CoverSource, catalog.CoverSourceCatalog) || catalog.IsPlaceholderCover(winner.CoverURL) {
				winner.CoverURL = loser.CoverURL
				winner.CoverSource = loser.CoverSource
				changed = true
			}
		}
	}
	return changed
}
