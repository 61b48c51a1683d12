package testsupport

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"ludex/internal/catalog"
	"ludex/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustInsertGame inserts a game and fails the test on error.
func MustInsertGame(t testing.TB, store *catalog.Store, game *catalog.Game) *catalog.Game {
	t.Helper()

	inserted, err := store.InsertGame(context.Background(), game)
	if err != nil {
		t.Fatalf("InsertGame %q: %v", game.CanonicalTitle, err)
	}
	return inserted
}

// MustExec runs raw SQL against the store's database file over a second
// connection. Repair-job tests use it to stage legacy rows the current
// schema's unique indexes would refuse.
func MustExec(t testing.TB, store *catalog.Store, query string, args ...any) {
	t.Helper()

	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// MustInsertRelease inserts a release and fails the test on error.
func MustInsertRelease(t testing.TB, store *catalog.Store, release *catalog.Release) *catalog.Release {
	t.Helper()

	inserted, err := store.InsertRelease(context.Background(), release)
	if err != nil {
		t.Fatalf("InsertRelease %q: %v", release.DisplayTitle, err)
	}
	return inserted
}
