package igdb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearchGames(t *testing.T) {
	var gotBody string
	var gotClientID, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotClientID = r.Header.Get("Client-ID")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
            {
                "id": 72,
                "name": "Portal 2",
                "slug": "portal-2",
                "summary": "Sequel to Portal.",
                "first_release_date": 1303171200,
                "genres": [{"name": "Puzzle"}, {"name": "Platform"}],
                "involved_companies": [
                    {"company": {"name": "Valve"}, "developer": true, "publisher": true}
                ],
                "cover": {"url": "//images.igdb.com/igdb/image/upload/t_thumb/co1rs4.jpg"}
            }
        ]`))
	}))
	defer server.Close()

	client, err := New("client-id", "token", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	games, err := client.SearchGames(context.Background(), "Portal 2", 5)
	if err != nil {
		t.Fatalf("SearchGames: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}

	if !strings.Contains(gotBody, `search "Portal 2";`) {
		t.Errorf("request body missing search clause: %q", gotBody)
	}
	if !strings.Contains(gotBody, "limit 5;") {
		t.Errorf("request body missing limit clause: %q", gotBody)
	}
	if gotClientID != "client-id" || gotAuth != "Bearer token" {
		t.Errorf("auth headers = %q / %q", gotClientID, gotAuth)
	}

	game := games[0]
	if game.ID != 72 || game.Name != "Portal 2" {
		t.Fatalf("unexpected game %+v", game)
	}
	if game.Year() != 2011 {
		t.Errorf("Year() = %d, want 2011", game.Year())
	}
	if got := game.GenreNames(); len(got) != 2 || got[0] != "Puzzle" {
		t.Errorf("GenreNames() = %v", got)
	}
	if game.DeveloperName() != "Valve" || game.PublisherName() != "Valve" {
		t.Errorf("companies = %q / %q", game.DeveloperName(), game.PublisherName())
	}
	wantCover := "https://images.igdb.com/igdb/image/upload/t_cover_big/co1rs4.jpg"
	if game.CoverURL() != wantCover {
		t.Errorf("CoverURL() = %q, want %q", game.CoverURL(), wantCover)
	}
}

func TestSearchGamesErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad token"}`))
	}))
	defer server.Close()

	client, err := New("client-id", "token", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.SearchGames(context.Background(), "Portal", 0); err == nil {
		t.Fatal("expected error for non-2xx response")
	} else if !strings.Contains(err.Error(), "401") {
		t.Fatalf("error should carry the status code, got %v", err)
	}
}

func TestGameBySlug(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `where slug = "portal-2";`) {
			t.Errorf("body missing slug clause: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 72, "name": "Portal 2", "slug": "portal-2"}]`))
	}))
	defer server.Close()

	client, err := New("client-id", "token", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	game, err := client.GameBySlug(context.Background(), "portal-2")
	if err != nil {
		t.Fatalf("GameBySlug: %v", err)
	}
	if game == nil || game.ID != 72 {
		t.Fatalf("unexpected game %+v", game)
	}
}

func TestGameBySlugMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := New("client-id", "token", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	game, err := client.GameBySlug(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GameBySlug: %v", err)
	}
	if game != nil {
		t.Fatalf("expected nil for empty response, got %+v", game)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", "token", "https://example.com"); err == nil {
		t.Fatal("expected error for missing client id")
	}
	if _, err := New("id", "", "https://example.com"); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Portal 2", "portal-2"},
		{"Tony Hawk's Pro Skater", "tony-hawk-s-pro-skater"},
		{"  DOOM  ", "doom"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.title); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestNormalizeCoverURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"//images.example/t_thumb/x.jpg", "https://images.example/t_cover_big/x.jpg"},
		{"http://images.example/t_thumb/x.jpg", "https://images.example/t_cover_big/x.jpg"},
		{"https://images.example/t_cover_big/x.jpg", "https://images.example/t_cover_big/x.jpg"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeCoverURL(tc.raw); got != tc.want {
			t.Fatalf("NormalizeCoverURL(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
