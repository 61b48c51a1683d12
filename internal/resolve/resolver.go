package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ludex/internal/catalog"
	"ludex/internal/logging"
	"ludex/internal/titles"
)

// GameResolver maps raw platform titles onto canonical game rows.
type GameResolver struct {
	store   *catalog.Store
	matcher *Matcher
	logger  *slog.Logger
}

// NewGameResolver builds a resolver over a store and an optional matcher.
func NewGameResolver(store *catalog.Store, matcher *Matcher, logger *slog.Logger) *GameResolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GameResolver{store: store, matcher: matcher, logger: logger}
}

// Resolve returns the canonical game for a raw platform title, creating or
// enriching rows as needed. Identity fields that came from the external
// catalog are never regressed: a stored external id short-circuits matching
// entirely, and metadata is only filled in where it is missing. A concurrent
// resolver racing on the same title converges on the same row.
func (r *GameResolver) Resolve(ctx context.Context, rawTitle string, platform catalog.Platform) (*catalog.Game, error) {
	key := titles.CanonicalKey(rawTitle)
	if key == "" {
		return nil, fmt.Errorf("title %q normalizes to nothing", rawTitle)
	}

	existing, err := r.store.GameByTitleKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IGDBID != nil {
		return existing, nil
	}

	if IsNonGame(rawTitle) {
		r.logger.Debug("non-game title, skipping catalog lookup",
			logging.String("title", rawTitle))
		return r.titleOnly(ctx, rawTitle, key, existing)
	}

	match, err := r.matcher.Match(ctx, rawTitle, string(platform))
	if err != nil {
		return nil, err
	}
	if match == nil {
		return r.titleOnly(ctx, rawTitle, key, existing)
	}

	byID, err := r.store.GameByIGDBID(ctx, match.IGDBID)
	if err != nil {
		return nil, err
	}
	if byID != nil {
		return r.enrich(ctx, byID, match)
	}

	if existing != nil {
		return r.adopt(ctx, existing, match)
	}

	return r.insertMatched(ctx, key, match)
}

// titleOnly ensures a game row exists for a title the catalog does not know.
func (r *GameResolver) titleOnly(ctx context.Context, rawTitle, key string, existing *catalog.Game) (*catalog.Game, error) {
	if existing != nil {
		return existing, nil
	}
	game := &catalog.Game{
		CanonicalTitle: titles.Normalize(rawTitle),
		TitleKey:       key,
	}
	return catalog.UpsertWithRaceRecovery(
		func() (*catalog.Game, error) { return r.store.InsertGame(ctx, game) },
		func() (*catalog.Game, error) { return r.requireGameByKey(ctx, key) },
	)
}

// enrich patches missing metadata onto a game that already carries the
// matched external id. Identity fields are left alone.
func (r *GameResolver) enrich(ctx context.Context, game *catalog.Game, match *Match) (*catalog.Game, error) {
	before := *game
	applyMetadataPatch(game, match)
	if *game == before {
		return game, nil
	}
	if err := r.store.UpdateGame(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// adopt attaches a fresh catalog identity to a title-only game. The canonical
// title becomes the catalog's official name unless another row already owns
// that name.
func (r *GameResolver) adopt(ctx context.Context, game *catalog.Game, match *Match) (*catalog.Game, error) {
	origTitle, origKey := game.CanonicalTitle, game.TitleKey
	applyIdentity(game, match)
	applyMetadataPatch(game, match)

	err := r.store.UpdateGame(ctx, game)
	if err == nil {
		return game, nil
	}
	if !catalog.IsUniqueViolation(err) {
		return nil, err
	}

	// Either a concurrent resolver claimed the external id first, or another
	// row already uses the catalog's name as its title key.
	winner, werr := r.store.GameByIGDBID(ctx, match.IGDBID)
	if werr != nil {
		return nil, werr
	}
	if winner != nil && winner.ID != game.ID {
		return winner, nil
	}

	game.CanonicalTitle, game.TitleKey = origTitle, origKey
	if err := r.store.UpdateGame(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// insertMatched creates a game straight from a catalog match. Losing the
// insert race converges on whichever row the winner wrote, by external id
// first and title key second.
func (r *GameResolver) insertMatched(ctx context.Context, key string, match *Match) (*catalog.Game, error) {
	game := &catalog.Game{
		CanonicalTitle: match.Name,
		TitleKey:       titles.CanonicalKey(match.Name),
	}
	if game.TitleKey == "" {
		game.TitleKey = key
	}
	applyIdentity(game, match)
	applyMetadataPatch(game, match)

	return catalog.UpsertWithRaceRecovery(
		func() (*catalog.Game, error) { return r.store.InsertGame(ctx, game) },
		func() (*catalog.Game, error) {
			winner, err := r.store.GameByIGDBID(ctx, match.IGDBID)
			if err != nil {
				return nil, err
			}
			if winner != nil {
				return r.enrich(ctx, winner, match)
			}
			winner, err = r.store.GameByTitleKey(ctx, game.TitleKey)
			if err != nil {
				return nil, err
			}
			if winner == nil {
				return r.requireGameByKey(ctx, key)
			}
			if winner.IGDBID == nil {
				return r.adopt(ctx, winner, match)
			}
			return winner, nil
		},
	)
}

func (r *GameResolver) requireGameByKey(ctx context.Context, key string) (*catalog.Game, error) {
	game, err := r.store.GameByTitleKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("game with title key %q vanished during upsert", key)
	}
	return game, nil
}

// applyIdentity sets the external id and catalog name on a game.
func applyIdentity(game *catalog.Game, match *Match) {
	id := match.IGDBID
	game.IGDBID = &id
	if match.Name != "" {
		game.CanonicalTitle = match.Name
		game.TitleKey = titles.CanonicalKey(match.Name)
	}
}

// applyMetadataPatch fills in missing metadata from a match without touching
// fields that already hold data. Covers follow the provenance rule: a
// catalog cover replaces placeholders and platform guesses, never another
// catalog cover.
func applyMetadataPatch(game *catalog.Game, match *Match) {
	if game.Summary == "" {
		game.Summary = match.Summary
	}
	if game.Genres == "" && len(match.Genres) > 0 {
		game.Genres = strings.Join(match.Genres, ", ")
	}
	if game.Developer == "" {
		game.Developer = match.Developer
	}
	if game.Publisher == "" {
		game.Publisher = match.Publisher
	}
	if game.FirstReleaseYear == 0 {
		game.FirstReleaseYear = match.Year
	}
	if match.CoverURL != "" && catalog.CoverReplaceable(game.CoverURL, game.CoverSource) {
		game.CoverURL = match.CoverURL
		game.CoverSource = catalog.CoverSourceCatalog
	}
}
