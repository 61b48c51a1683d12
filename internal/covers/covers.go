// Package covers propagates game cover art down to releases that lack it.
package covers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"ludex/internal/catalog"
	"ludex/internal/logging"
)

// Report summarizes one propagation run.
type Report struct {
	RunID            string
	GamesExamined    int
	ReleasesUpdated  int
	ReleasesUpToDate int
}

// Propagator copies a game's cover onto its releases when a release has only
// a placeholder. Release covers that already hold a real image are left
// alone.
type Propagator struct {
	store  *catalog.Store
	logger *slog.Logger
}

// NewPropagator builds a propagator over a store.
func NewPropagator(store *catalog.Store, logger *slog.Logger) *Propagator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Propagator{store: store, logger: logger}
}

// Run walks games with usable covers, up to gameLimit (zero for all), and
// fills in placeholder release covers. Re-running is a no-op once every
// release carries a real cover.
func (p *Propagator) Run(ctx context.Context, gameLimit int) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}

	games, err := p.store.GamesWithCover(ctx, gameLimit)
	if err != nil {
		return nil, err
	}

	for _, game := range games {
		if catalog.IsPlaceholderCover(game.CoverURL) {
			continue
		}
		report.GamesExamined++

		releases, err := p.store.ReleasesByGame(ctx, game.ID)
		if err != nil {
			return nil, err
		}
		for _, release := range releases {
			if !catalog.IsPlaceholderCover(release.CoverURL) {
				report.ReleasesUpToDate++
				continue
			}
			if err := p.store.UpdateReleaseCover(ctx, release.ID, game.CoverURL); err != nil {
				return nil, err
			}
			report.ReleasesUpdated++
		}
	}

	p.logger.Info("cover propagation finished",
		logging.String("run_id", report.RunID),
		logging.Int("games", report.GamesExamined),
		logging.Int("updated", report.ReleasesUpdated))
	return report, nil
}
