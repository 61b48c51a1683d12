package catalog

import (
	"database/sql"
	"errors"
	"time"
)

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func timestamp(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func int64Args(ids []int64) []any {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

type rowScanner interface{ Scan(dest ...any) error }

const gameColumns = "id, canonical_title, title_key, igdb_id, summary, genres, developer, publisher, first_release_year, cover_url, cover_source, created_at, updated_at"

func scanGame(scanner rowScanner) (*Game, error) {
	var (
		id          int64
		canonical   string
		titleKey    string
		igdbID      sql.NullInt64
		summary     sql.NullString
		genres      sql.NullString
		developer   sql.NullString
		publisher   sql.NullString
		releaseYear sql.NullInt64
		coverURL    sql.NullString
		coverSource sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&canonical,
		&titleKey,
		&igdbID,
		&summary,
		&genres,
		&developer,
		&publisher,
		&releaseYear,
		&coverURL,
		&coverSource,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	game := &Game{
		ID:               id,
		CanonicalTitle:   canonical,
		TitleKey:         titleKey,
		Summary:          summary.String,
		Genres:           genres.String,
		Developer:        developer.String,
		Publisher:        publisher.String,
		FirstReleaseYear: int(releaseYear.Int64),
		CoverURL:         coverURL.String,
		CoverSource:      coverSource.String,
	}
	if igdbID.Valid {
		value := igdbID.Int64
		game.IGDBID = &value
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		game.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		game.UpdatedAt = updated
	}
	return game, nil
}

const releaseColumns = "id, game_id, platform, platform_label, display_title, cover_url, created_at, updated_at, last_synced_at"

func scanRelease(scanner rowScanner) (*Release, error) {
	var (
		id            int64
		gameID        sql.NullInt64
		platform      string
		platformLabel sql.NullString
		displayTitle  string
		coverURL      sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
		lastSyncedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&gameID,
		&platform,
		&platformLabel,
		&displayTitle,
		&coverURL,
		&createdRaw,
		&updatedRaw,
		&lastSyncedRaw,
	); err != nil {
		return nil, err
	}

	release := &Release{
		ID:            id,
		Platform:      Platform(platform),
		PlatformLabel: platformLabel.String,
		DisplayTitle:  displayTitle,
		CoverURL:      coverURL.String,
	}
	if gameID.Valid {
		value := gameID.Int64
		release.GameID = &value
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		release.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		release.UpdatedAt = updated
	}
	if lastSyncedRaw.Valid {
		if synced, err := parseTimeString(lastSyncedRaw.String); err == nil {
			release.LastSyncedAt = &synced
		}
	}
	return release, nil
}

const libraryEntryColumns = "id, user_id, release_id, playtime_minutes, achievements_earned, achievements_total, last_played_at, created_at, updated_at"

func scanLibraryEntry(scanner rowScanner) (*LibraryEntry, error) {
	var (
		id            int64
		userID        string
		releaseID     int64
		playtime      sql.NullInt64
		earned        sql.NullInt64
		total         sql.NullInt64
		lastPlayedRaw sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&userID,
		&releaseID,
		&playtime,
		&earned,
		&total,
		&lastPlayedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &LibraryEntry{
		ID:                 id,
		UserID:             userID,
		ReleaseID:          releaseID,
		PlaytimeMinutes:    int(playtime.Int64),
		AchievementsEarned: int(earned.Int64),
		AchievementsTotal:  int(total.Int64),
	}
	if lastPlayedRaw.Valid {
		if played, err := parseTimeString(lastPlayedRaw.String); err == nil {
			entry.LastPlayedAt = &played
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}
