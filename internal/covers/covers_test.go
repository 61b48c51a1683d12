package covers

import (
	"context"
	"testing"

	"ludex/internal/catalog"
	"ludex/internal/testsupport"
)

func TestPropagate(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	game := testsupport.MustInsertGame(t, store, &catalog.Game{
		CanonicalTitle: "Portal 2", TitleKey: "portal 2",
		CoverURL: "https://img/portal2.jpg", CoverSource: catalog.CoverSourceCatalog,
	})
	bare := testsupport.MustInsertRelease(t, store, &catalog.Release{
		GameID: &game.ID, Platform: catalog.PlatformSteam, DisplayTitle: "Portal 2",
	})
	covered := testsupport.MustInsertRelease(t, store, &catalog.Release{
		GameID: &game.ID, Platform: catalog.PlatformPSN, DisplayTitle: "Portal 2",
		CoverURL: "https://img/psn-own.jpg",
	})

	// A game whose only cover is a placeholder contributes nothing.
	placeholderGame := testsupport.MustInsertGame(t, store, &catalog.Game{
		CanonicalTitle: "Mystery", TitleKey: "mystery",
		CoverURL: "https://img/no_cover.png",
	})
	untouched := testsupport.MustInsertRelease(t, store, &catalog.Release{
		GameID: &placeholderGame.ID, Platform: catalog.PlatformSteam, DisplayTitle: "Mystery",
	})

	report, err := NewPropagator(store, nil).Run(ctx, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.GamesExamined != 1 || report.ReleasesUpdated != 1 {
		t.Fatalf("report = %+v", report)
	}

	filled, err := store.ReleaseByID(ctx, bare.ID)
	if err != nil {
		t.Fatalf("ReleaseByID: %v", err)
	}
	if filled.CoverURL != "https://img/portal2.jpg" {
		t.Fatalf("bare release cover = %q", filled.CoverURL)
	}

	kept, err := store.ReleaseByID(ctx, covered.ID)
	if err != nil {
		t.Fatalf("ReleaseByID: %v", err)
	}
	if kept.CoverURL != "https://img/psn-own.jpg" {
		t.Fatalf("existing cover was overwritten: %q", kept.CoverURL)
	}

	skipped, err := store.ReleaseByID(ctx, untouched.ID)
	if err != nil {
		t.Fatalf("ReleaseByID: %v", err)
	}
	if skipped.CoverURL != "" {
		t.Fatalf("placeholder game cover propagated: %q", skipped.CoverURL)
	}

	// Second run finds nothing left to do.
	again, err := NewPropagator(store, nil).Run(ctx, 0)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.ReleasesUpdated != 0 {
		t.Fatalf("second run updated %d releases", again.ReleasesUpdated)
	}
}
