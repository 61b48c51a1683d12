package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"ludex/internal/catalog"
	"ludex/internal/dedupe"
	"ludex/internal/igdb"
	"ludex/internal/testsupport"
)

// fakeSearcher serves canned catalog responses and records queries.
type fakeSearcher struct {
	responses map[string][]igdb.Game
	slugs     map[string]*igdb.Game
	err       error
	queries   []string
}

func (f *fakeSearcher) SearchGames(_ context.Context, query string, _ int) ([]igdb.Game, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[query], nil
}

func (f *fakeSearcher) GameBySlug(_ context.Context, slug string) (*igdb.Game, error) {
	f.queries = append(f.queries, "slug:"+slug)
	if f.err != nil {
		return nil, f.err
	}
	return f.slugs[slug], nil
}

func newTestMatcher(client igdb.Searcher) *Matcher {
	m := NewMatcher(client, nil)
	if m.search != nil {
		m.search.sleep = func(time.Duration) {}
	}
	return m
}

func portal2Game() igdb.Game {
	return igdb.Game{
		ID:               72,
		Name:             "Portal 2",
		Slug:             "portal-2",
		Summary:          "Sequel to Portal.",
		FirstReleaseDate: time.Date(2011, 4, 19, 0, 0, 0, 0, time.UTC).Unix(),
		Genres:           []igdb.Genre{{Name: "Puzzle"}},
		InvolvedCompanies: []igdb.InvolvedCompany{
			{Company: igdb.Company{Name: "Valve"}, Developer: true, Publisher: true},
		},
		Cover: &igdb.Cover{URL: "//images.example/t_thumb/co1rs4.jpg"},
	}
}

func TestMatcherFirstNonEmptyWins(t *testing.T) {
	fake := &fakeSearcher{
		responses: map[string][]igdb.Game{
			"The Witcher 3: Wild Hunt": {{ID: 1942, Name: "The Witcher 3: Wild Hunt"}},
		},
	}
	matcher := newTestMatcher(fake)

	match, err := matcher.Match(context.Background(), "The Witcher 3: Wild Hunt - Game of the Year Edition (PS4)", "")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if match == nil || match.IGDBID != 1942 {
		t.Fatalf("match = %+v", match)
	}
	// Queries run most-likely-correct first and stop at the first hit.
	want := []string{
		"The Witcher 3: Wild Hunt - Game of the Year Edition (PS4)",
		"The Witcher 3: Wild Hunt - Game of the Year Edition",
		"The Witcher 3: Wild Hunt",
	}
	if len(fake.queries) != len(want) {
		t.Fatalf("queries = %#v, want %#v", fake.queries, want)
	}
	for i := range want {
		if fake.queries[i] != want[i] {
			t.Fatalf("query %d = %q, want %q", i, fake.queries[i], want[i])
		}
	}
}

func TestMatcherScoresWithinSingleResponse(t *testing.T) {
	year2006 := time.Date(2005, 8, 1, 0, 0, 0, 0, time.UTC).Unix()
	year2007 := time.Date(2006, 8, 1, 0, 0, 0, 0, time.UTC).Unix()
	fake := &fakeSearcher{
		responses: map[string][]igdb.Game{
			"Madden NFL 07": {
				{ID: 1, Name: "Madden NFL 06", FirstReleaseDate: year2006},
				{ID: 2, Name: "Madden NFL 07", FirstReleaseDate: year2007},
			},
		},
	}
	matcher := newTestMatcher(fake)

	match, err := matcher.Match(context.Background(), "Madden NFL 07", "")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if match == nil || match.IGDBID != 2 {
		t.Fatalf("expected the exact-name, matching-year result to win, got %+v", match)
	}
}

func TestMatcherSlugFallback(t *testing.T) {
	fake := &fakeSearcher{
		slugs: map[string]*igdb.Game{
			"celeste": {ID: 26226, Name: "Celeste", Slug: "celeste"},
		},
	}
	matcher := newTestMatcher(fake)

	match, err := matcher.Match(context.Background(), "Celeste", "")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if match == nil || match.IGDBID != 26226 {
		t.Fatalf("match = %+v", match)
	}
}

func TestMatcherUnavailableDegradesToMiss(t *testing.T) {
	fake := &fakeSearcher{err: errors.New("503 from catalog")}
	matcher := newTestMatcher(fake)

	match, err := matcher.Match(context.Background(), "Portal 2", "")
	if err != nil {
		t.Fatalf("unavailability must not surface as an error, got %v", err)
	}
	if match != nil {
		t.Fatalf("expected miss, got %+v", match)
	}
}

func TestMatcherNilClient(t *testing.T) {
	matcher := NewMatcher(nil, nil)
	match, err := matcher.Match(context.Background(), "Portal 2", "")
	if err != nil || match != nil {
		t.Fatalf("nil client should be a silent miss, got %+v, %v", match, err)
	}
}

func TestResolveCreatesMatchedGame(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	fake := &fakeSearcher{responses: map[string][]igdb.Game{"Portal 2": {portal2Game()}}}
	resolver := NewGameResolver(store, newTestMatcher(fake), nil)

	game, err := resolver.Resolve(context.Background(), "Portal 2™", catalog.PlatformSteam)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if game.IGDBID == nil || *game.IGDBID != 72 {
		t.Fatalf("igdb id = %+v", game.IGDBID)
	}
	if game.CanonicalTitle != "Portal 2" {
		t.Fatalf("canonical title = %q, want the catalog's official name", game.CanonicalTitle)
	}
	if game.CoverSource != catalog.CoverSourceCatalog {
		t.Fatalf("cover source = %q", game.CoverSource)
	}
	if game.Summary != "Sequel to Portal." || game.FirstReleaseYear != 2011 {
		t.Fatalf("metadata not applied: %+v", game)
	}

	// A stored external id short-circuits matching on the next resolution.
	queriesBefore := len(fake.queries)
	again, err := resolver.Resolve(context.Background(), "Portal 2", catalog.PlatformSteam)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if again.ID != game.ID {
		t.Fatalf("resolved to a different row: %d vs %d", again.ID, game.ID)
	}
	if len(fake.queries) != queriesBefore {
		t.Fatal("resolution with a stored external id must not hit the catalog")
	}
}

func TestResolveTitleOnlyThenUpgrade(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	fake := &fakeSearcher{}
	resolver := NewGameResolver(store, newTestMatcher(fake), nil)

	game, err := resolver.Resolve(context.Background(), "Obscure Homebrew RPG", catalog.PlatformRetroAchievements)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if game.IGDBID != nil {
		t.Fatalf("expected title-only identity, got igdb %d", *game.IGDBID)
	}

	again, err := resolver.Resolve(context.Background(), "Obscure Homebrew RPG", catalog.PlatformRetroAchievements)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if again.ID != game.ID {
		t.Fatalf("title-only resolution should be stable, got %d vs %d", again.ID, game.ID)
	}

	// The catalog learns about the title; the next resolution adopts the
	// identity onto the existing row instead of creating a duplicate.
	fake.responses = map[string][]igdb.Game{
		"Obscure Homebrew RPG": {{ID: 9001, Name: "Obscure Homebrew RPG"}},
	}
	upgraded, err := resolver.Resolve(context.Background(), "Obscure Homebrew RPG", catalog.PlatformRetroAchievements)
	if err != nil {
		t.Fatalf("third Resolve: %v", err)
	}
	if upgraded.ID != game.ID {
		t.Fatalf("upgrade created a new row: %d vs %d", upgraded.ID, game.ID)
	}
	if upgraded.IGDBID == nil || *upgraded.IGDBID != 9001 {
		t.Fatalf("identity not adopted: %+v", upgraded.IGDBID)
	}
}

func TestResolveNonGameSkipsCatalog(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	fake := &fakeSearcher{responses: map[string][]igdb.Game{"Netflix": {{ID: 5, Name: "Netflix"}}}}
	resolver := NewGameResolver(store, newTestMatcher(fake), nil)

	game, err := resolver.Resolve(context.Background(), "Netflix", catalog.PlatformPSN)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if game.IGDBID != nil {
		t.Fatal("non-game content must not get a catalog identity")
	}
	if len(fake.queries) != 0 {
		t.Fatalf("non-game titles must not hit the catalog, saw %v", fake.queries)
	}
}

func TestResolveConvergesOnExternalID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	fake := &fakeSearcher{responses: map[string][]igdb.Game{
		"Portal 2":       {portal2Game()},
		"Portal 2 (PS3)": {portal2Game()},
		"Portal 2 PS3":   {portal2Game()},
	}}
	resolver := NewGameResolver(store, newTestMatcher(fake), nil)

	first, err := resolver.Resolve(context.Background(), "Portal 2", catalog.PlatformSteam)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), "Portal 2 (PS3)", catalog.PlatformPSN)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("different title spellings matching one catalog entry must converge: %d vs %d", first.ID, second.ID)
	}
}

func TestResolveDoesNotRegressMetadata(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	full := portal2Game()
	resolver := NewGameResolver(store, newTestMatcher(&fakeSearcher{
		responses: map[string][]igdb.Game{"Portal 2": {full}},
	}), nil)
	game, err := resolver.Resolve(context.Background(), "Portal 2", catalog.PlatformSteam)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// A later sync sees the same catalog entry with worse data; nothing may
	// be overwritten.
	sparse := igdb.Game{ID: 72, Name: "Portal 2"}
	resolver = NewGameResolver(store, newTestMatcher(&fakeSearcher{
		responses: map[string][]igdb.Game{"Portal 2 (PS3)": {sparse}, "Portal 2 PS3": {sparse}, "Portal 2": {sparse}},
	}), nil)
	again, err := resolver.Resolve(context.Background(), "Portal 2 (PS3)", catalog.PlatformPSN)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if again.ID != game.ID {
		t.Fatalf("expected the same row, got %d vs %d", again.ID, game.ID)
	}
	if again.Summary != "Sequel to Portal." {
		t.Fatalf("summary regressed to %q", again.Summary)
	}
	if again.CoverURL == "" || again.CoverSource != catalog.CoverSourceCatalog {
		t.Fatalf("cover regressed: %q/%q", again.CoverURL, again.CoverSource)
	}
}

func TestReleaseMapperAnchorsMapping(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	fake := &fakeSearcher{responses: map[string][]igdb.Game{"Portal 2": {portal2Game()}}}
	resolver := NewGameResolver(store, newTestMatcher(fake), nil)
	mapper := NewReleaseMapper(store, resolver, nil, nil)

	releaseID, err := mapper.Resolve(context.Background(), catalog.PlatformSteam, "620", "Portal 2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	mapping, err := store.MappingByNativeID(context.Background(), catalog.PlatformSteam, "620")
	if err != nil {
		t.Fatalf("MappingByNativeID: %v", err)
	}
	if mapping == nil || mapping.ReleaseID != releaseID {
		t.Fatalf("mapping = %+v, want release %d", mapping, releaseID)
	}

	release, err := store.ReleaseByID(context.Background(), releaseID)
	if err != nil {
		t.Fatalf("ReleaseByID: %v", err)
	}
	if release == nil || release.GameID == nil {
		t.Fatalf("release = %+v", release)
	}
	if release.DisplayTitle != "Portal 2" {
		t.Fatalf("display title = %q", release.DisplayTitle)
	}

	// Fast path: the anchor is authoritative, even with a wildly different
	// title, and never hits the catalog.
	queriesBefore := len(fake.queries)
	againID, err := mapper.Resolve(context.Background(), catalog.PlatformSteam, "620", "Totally Renamed Edition")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if againID != releaseID {
		t.Fatalf("anchored id must be stable: %d vs %d", againID, releaseID)
	}
	if len(fake.queries) != queriesBefore {
		t.Fatal("anchored resolution must not hit the catalog")
	}
}

func TestReleaseMapperSharesReleaseAcrossUsers(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	fake := &fakeSearcher{responses: map[string][]igdb.Game{"Portal 2": {portal2Game()}}}
	resolver := NewGameResolver(store, newTestMatcher(fake), nil)
	mapper := NewReleaseMapper(store, resolver, nil, nil)

	// Two different native ids for the same (platform, game) converge on one
	// release; the second id anchors to the existing row.
	first, err := mapper.Resolve(context.Background(), catalog.PlatformSteam, "620", "Portal 2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := mapper.Resolve(context.Background(), catalog.PlatformSteam, "620-deluxe", "Portal 2")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first != second {
		t.Fatalf("same (platform, game) must share a release: %d vs %d", first, second)
	}
}

func TestReleaseMapperFoldsLostAnchorRace(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	fake := &fakeSearcher{responses: map[string][]igdb.Game{"Portal 2": {portal2Game()}}}
	resolver := NewGameResolver(store, newTestMatcher(fake), nil)
	mapper := NewReleaseMapper(store, resolver, dedupe.NewJobs(store, nil).Merger(), nil)

	// The release a concurrent sync anchored the native id to.
	anchor := testsupport.MustInsertRelease(t, store, &catalog.Release{
		Platform: catalog.PlatformSteam, DisplayTitle: "Portal 2",
	})
	mapper.beforeAnchor = func() {
		if err := store.InsertMappingIgnore(ctx, catalog.PlatformSteam, "620", anchor.ID); err != nil {
			t.Fatalf("stage anchor: %v", err)
		}
	}

	releaseID, err := mapper.Resolve(ctx, catalog.PlatformSteam, "620", "Portal 2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if releaseID != anchor.ID {
		t.Fatalf("release = %d, want the anchored winner %d", releaseID, anchor.ID)
	}

	// The freshly created release folded into the winner.
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Releases != 1 || stats.Mappings != 1 {
		t.Fatalf("stats = %+v, want one release and one mapping", stats)
	}
	mapping, err := store.MappingByNativeID(ctx, catalog.PlatformSteam, "620")
	if err != nil {
		t.Fatalf("MappingByNativeID: %v", err)
	}
	if mapping == nil || mapping.ReleaseID != anchor.ID {
		t.Fatalf("mapping = %+v, want release %d", mapping, anchor.ID)
	}

	// Without a merger, the same race surfaces as an error instead.
	bare := NewReleaseMapper(store, resolver, nil, nil)
	other := testsupport.MustInsertRelease(t, store, &catalog.Release{
		Platform: catalog.PlatformPSN, DisplayTitle: "Portal 2",
	})
	bare.beforeAnchor = func() {
		if err := store.InsertMappingIgnore(ctx, catalog.PlatformPSN, "NPWR-620", other.ID); err != nil {
			t.Fatalf("stage anchor: %v", err)
		}
	}
	if _, err := bare.Resolve(ctx, catalog.PlatformPSN, "NPWR-620", "Portal 2"); err == nil {
		t.Fatal("expected error when no merger can fold the duplicate")
	}
}

func TestReleaseMapperRequiresNativeID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	mapper := NewReleaseMapper(store, NewGameResolver(store, NewMatcher(nil, nil), nil), nil, nil)

	if _, err := mapper.Resolve(context.Background(), catalog.PlatformSteam, "  ", "Portal 2"); err == nil {
		t.Fatal("expected error for blank native id")
	}
}

func TestIsNonGame(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Netflix", true},
		{"YouTube", true},
		{"Spotify Music", true},
		{"Portal 2", false},
		{"Demo Disc Vol. 2", true},
		{"Doom", false},
	}
	for _, tc := range cases {
		if got := IsNonGame(tc.title); got != tc.want {
			t.Fatalf("IsNonGame(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}
