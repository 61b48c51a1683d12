package resolve

import (
	"context"
	"log/slog"
	"strings"

	"ludex/internal/igdb"
	"ludex/internal/logging"
	"ludex/internal/titles"
)

// Match is a confirmed external-catalog identity for a title.
type Match struct {
	IGDBID    int64
	Name      string
	Slug      string
	Summary   string
	Genres    []string
	Developer string
	Publisher string
	Year      int
	CoverURL  string
}

// Matcher finds the external-catalog entry for a raw platform title. A nil
// Matcher, or one whose catalog is unreachable, degrades every lookup to a
// miss; resolution then falls back to title-only identities.
type Matcher struct {
	search *catalogSearch
	logger *slog.Logger
}

// NewMatcher wraps a catalog client. client may be nil when no catalog is
// configured.
func NewMatcher(client igdb.Searcher, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Matcher{logger: logger}
	if client != nil {
		m.search = newCatalogSearch(client)
	}
	return m
}

// Match walks the candidate queries for rawTitle, most-likely-correct first,
// and returns the best result of the first query that returns any. When every
// query comes up empty it tries one exact-slug lookup as a last resort. A miss
// and an unreachable catalog both return (nil, nil); errors are reserved for
// context cancellation.
func (m *Matcher) Match(ctx context.Context, rawTitle, platformHint string) (*Match, error) {
	if m == nil || m.search == nil {
		return nil, nil
	}

	candidates := titles.Candidates(rawTitle, platformHint)
	if len(candidates) == 0 {
		return nil, nil
	}
	_, year := titles.SplitYear(titles.Normalize(rawTitle))

	for _, query := range candidates {
		games, err := m.search.search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.logger.Warn("catalog search failed",
				logging.String("query", query),
				logging.Error(err))
			continue
		}
		if len(games) == 0 {
			continue
		}
		best := selectBest(query, year, games)
		m.logger.Debug("catalog match",
			logging.String("query", query),
			logging.String("name", best.Name),
			logging.Int64("igdb_id", best.ID))
		return matchFromGame(best), nil
	}

	// Last resort: some titles search poorly but slug cleanly.
	slug := igdb.Slugify(candidates[len(candidates)-1])
	if slug == "" {
		return nil, nil
	}
	game, err := m.search.bySlug(ctx, slug)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.logger.Warn("catalog slug lookup failed",
			logging.String("slug", slug),
			logging.Error(err))
		return nil, nil
	}
	if game == nil {
		return nil, nil
	}
	return matchFromGame(*game), nil
}

func matchFromGame(game igdb.Game) *Match {
	return &Match{
		IGDBID:    game.ID,
		Name:      game.Name,
		Slug:      game.Slug,
		Summary:   game.Summary,
		Genres:    game.GenreNames(),
		Developer: game.DeveloperName(),
		Publisher: game.PublisherName(),
		Year:      game.Year(),
		CoverURL:  game.CoverURL(),
	}
}

// selectBest scores the results of a single response and returns the winner.
// Scoring only ever reorders within one response; it never mixes results from
// different queries.
func selectBest(query string, year int, games []igdb.Game) igdb.Game {
	best := games[0]
	bestScore := scoreResult(query, year, games[0], 0)
	for i, game := range games[1:] {
		if score := scoreResult(query, year, game, i+1); score > bestScore {
			best = game
			bestScore = score
		}
	}
	return best
}

// scoreResult weighs token overlap with the query, an exact-name match, and
// release-year agreement, minus a small penalty for falling later in the
// catalog's own relevance order.
func scoreResult(query string, year int, game igdb.Game, position int) float64 {
	queryTokens := tokenize(query)
	nameTokens := tokenize(game.Name)

	score := tokenOverlap(queryTokens, nameTokens)
	if strings.EqualFold(strings.TrimSpace(query), strings.TrimSpace(game.Name)) {
		score += 1.0
	}
	if year != 0 && game.Year() != 0 {
		switch delta := absInt(game.Year() - year); {
		case delta == 0:
			score += 2.0
		case delta == 1:
			score += 1.0
		}
	}
	return score - float64(position)*0.05
}

func tokenOverlap(query, name []string) float64 {
	if len(query) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(name))
	for _, token := range name {
		set[token] = struct{}{}
	}
	matched := 0
	for _, token := range query {
		if _, ok := set[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}

func tokenize(value string) []string {
	fields := strings.Fields(strings.ToLower(value))
	out := fields[:0]
	for _, field := range fields {
		field = strings.Trim(field, ".,:;!?'\"()[]")
		if field != "" {
			out = append(out, field)
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
