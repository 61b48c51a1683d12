package resolve

import (
	"context"
	"sync"
	"time"

	"ludex/internal/igdb"
)

const (
	searchCacheTTL  = 10 * time.Minute
	searchRateGap   = 250 * time.Millisecond
	searchResultCap = 10
)

type cachedResult struct {
	games   []igdb.Game
	fetched time.Time
}

// catalogSearch serializes catalog lookups, spaces them out, and caches
// responses so that re-running a sync over the same library does not hammer
// the catalog.
type catalogSearch struct {
	client igdb.Searcher

	mu         sync.Mutex
	cache      map[string]cachedResult
	lastLookup time.Time
	now        func() time.Time
	sleep      func(time.Duration)
}

func newCatalogSearch(client igdb.Searcher) *catalogSearch {
	return &catalogSearch{
		client: client,
		cache:  make(map[string]cachedResult),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

func (s *catalogSearch) search(ctx context.Context, query string) ([]igdb.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[query]; ok && s.now().Sub(cached.fetched) < searchCacheTTL {
		return cached.games, nil
	}

	s.waitForGap()
	games, err := s.client.SearchGames(ctx, query, searchResultCap)
	if err != nil {
		return nil, err
	}
	// Misses are not cached: a title the catalog has not indexed yet must be
	// retried on the next sync, or it stays title-only for the whole TTL.
	if len(games) > 0 {
		s.cache[query] = cachedResult{games: games, fetched: s.now()}
	}
	return games, nil
}

func (s *catalogSearch) bySlug(ctx context.Context, slug string) (*igdb.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := "slug:" + slug
	if cached, ok := s.cache[key]; ok && s.now().Sub(cached.fetched) < searchCacheTTL {
		game := cached.games[0]
		return &game, nil
	}

	s.waitForGap()
	game, err := s.client.GameBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if game != nil {
		s.cache[key] = cachedResult{games: []igdb.Game{*game}, fetched: s.now()}
	}
	return game, nil
}

// waitForGap enforces a minimum spacing between catalog calls. Caller holds
// the mutex, so lookups are serialized as a side effect.
func (s *catalogSearch) waitForGap() {
	if elapsed := s.now().Sub(s.lastLookup); elapsed < searchRateGap {
		s.sleep(searchRateGap - elapsed)
	}
	s.lastLookup = s.now()
}
