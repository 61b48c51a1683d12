package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ludex/internal/catalog"
	"ludex/internal/igdb"
	"ludex/internal/resolve"
	"ludex/internal/testsupport"
)

type fakeSearcher struct {
	responses map[string][]igdb.Game
}

func (f *fakeSearcher) SearchGames(_ context.Context, query string, _ int) ([]igdb.Game, error) {
	return f.responses[query], nil
}

func (f *fakeSearcher) GameBySlug(context.Context, string) (*igdb.Game, error) {
	return nil, nil
}

func newTestSyncer(t *testing.T, store *catalog.Store, fake *fakeSearcher) *Syncer {
	t.Helper()
	matcher := resolve.NewMatcher(fake, nil)
	resolver := resolve.NewGameResolver(store, matcher, nil)
	mapper := resolve.NewReleaseMapper(store, resolver, nil, nil)
	return New(store, mapper, nil)
}

func TestRunResolvesAndUpserts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	fake := &fakeSearcher{responses: map[string][]igdb.Game{
		"Portal 2": {{ID: 72, Name: "Portal 2"}},
	}}
	runner := newTestSyncer(t, store, fake)

	played := time.Date(2026, 2, 10, 20, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Platform: "steam", NativeID: "620", Title: "Portal 2", PlaytimeMinutes: 120, LastPlayedAt: &played},
		{Platform: "psn", NativeID: "NPWR-620", Title: "Portal 2"},
		{Platform: "", NativeID: "x", Title: "No Platform"},
		{Platform: "steam", NativeID: "", Title: "No Native ID"},
	}

	result, err := runner.Run(context.Background(), "alice", entries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Resolved != 2 || result.Skipped != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}

	// Both platform titles matched one catalog entry: one game, two
	// releases, two library rows.
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Games != 1 || stats.Releases != 2 || stats.LibraryEntries != 2 || stats.Mappings != 2 {
		t.Fatalf("stats = %+v", stats)
	}

	// Re-running the same batch converges on the same rows.
	again, err := runner.Run(context.Background(), "alice", entries)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Resolved != 2 {
		t.Fatalf("second run = %+v", again)
	}
	statsAfter, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if statsAfter != stats {
		t.Fatalf("re-run changed row counts: %+v vs %+v", statsAfter, stats)
	}
	if again.RunID == result.RunID {
		t.Fatal("runs should get distinct ids")
	}
}

func TestRunRequiresUser(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	runner := newTestSyncer(t, store, &fakeSearcher{})

	if _, err := runner.Run(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for blank user")
	}
}

func TestLoadEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	payload := `[
        {"platform": "steam", "native_id": "620", "title": "Portal 2",
         "playtime_minutes": 120, "achievements_earned": 40,
         "achievements_total": 51, "last_played_at": "2026-02-10T20:00:00Z"},
        {"platform": "psn", "native_id": "NPWR-1", "title": "Celeste"}
    ]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	entries, err := LoadEntries(path)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	first := entries[0]
	if first.Platform != "steam" || first.NativeID != "620" || first.PlaytimeMinutes != 120 {
		t.Fatalf("first = %+v", first)
	}
	if first.LastPlayedAt == nil || !first.LastPlayedAt.Equal(time.Date(2026, 2, 10, 20, 0, 0, 0, time.UTC)) {
		t.Fatalf("last played = %v", first.LastPlayedAt)
	}
	if entries[1].LastPlayedAt != nil {
		t.Fatalf("second entry should have no timestamp, got %v", entries[1].LastPlayedAt)
	}
}

func TestLoadEntriesBadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	payload := `[{"platform": "steam", "native_id": "620", "title": "Portal 2", "last_played_at": "yesterday"}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadEntries(path); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}
