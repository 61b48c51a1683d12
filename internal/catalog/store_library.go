package catalog

import (
	"context"
	"fmt"
	"time"
)

// UpsertLibraryEntry records a user's ownership/progress for a release,
// replacing progress fields on conflict. Sync jobs call this once per title
// per run.
func (s *Store) UpsertLibraryEntry(ctx context.Context, entry *LibraryEntry) error {
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO library_entries (
            user_id, release_id, playtime_minutes, achievements_earned,
            achievements_total, last_played_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (user_id, release_id) DO UPDATE SET
            playtime_minutes = excluded.playtime_minutes,
            achievements_earned = excluded.achievements_earned,
            achievements_total = excluded.achievements_total,
            last_played_at = COALESCE(excluded.last_played_at, library_entries.last_played_at),
            updated_at = excluded.updated_at`,
		entry.UserID,
		entry.ReleaseID,
		entry.PlaytimeMinutes,
		entry.AchievementsEarned,
		entry.AchievementsTotal,
		nullableTime(entry.LastPlayedAt),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("upsert library entry user %s release %d: %w", entry.UserID, entry.ReleaseID, err)
	}
	return nil
}

// MoveLibraryEntries re-points a loser release's entries at the winner.
// Entries whose user already has a row for the winner are dropped instead of
// moved, keeping at most one entry per (user, release). Returns moved and
// dropped counts.
func (s *Store) MoveLibraryEntries(ctx context.Context, fromReleaseID, toReleaseID int64) (int64, int64, error) {
	now := time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE OR IGNORE library_entries SET release_id = ?, updated_at = ? WHERE release_id = ?`,
		toReleaseID, timestamp(now), fromReleaseID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("move library entries %d -> %d: %w", fromReleaseID, toReleaseID, err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("rows affected: %w", err)
	}

	res, err = s.execWithRetry(
		ctx,
		`DELETE FROM library_entries WHERE release_id = ?`,
		fromReleaseID,
	)
	if err != nil {
		return moved, 0, fmt.Errorf("drop duplicate library entries for release %d: %w", fromReleaseID, err)
	}
	dropped, err := res.RowsAffected()
	if err != nil {
		return moved, 0, fmt.Errorf("rows affected: %w", err)
	}
	return moved, dropped, nil
}

// LibraryTitleRow is one (user, release) pairing with the release's display
// title, used by the per-user duplicate-title scan.
type LibraryTitleRow struct {
	UserID       string
	ReleaseID    int64
	DisplayTitle string
	Platform     Platform
}

// LibraryTitleRows lists every library entry joined with its release title,
// ordered by user then release.
func (s *Store) LibraryTitleRows(ctx context.Context) ([]LibraryTitleRow, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT le.user_id, r.id, r.display_title, r.platform
         FROM library_entries le
         JOIN releases r ON r.id = le.release_id
         ORDER BY le.user_id, r.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("library title rows: %w", err)
	}
	defer rows.Close()

	var result []LibraryTitleRow
	for rows.Next() {
		var row LibraryTitleRow
		var platform string
		if err := rows.Scan(&row.UserID, &row.ReleaseID, &row.DisplayTitle, &platform); err != nil {
			return nil, err
		}
		row.Platform = Platform(platform)
		result = append(result, row)
	}
	return result, rows.Err()
}

// CountLibraryEntriesByRelease returns how many library entries reference a
// release.
func (s *Store) CountLibraryEntriesByRelease(ctx context.Context, releaseID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM library_entries WHERE release_id = ?`,
		releaseID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count library entries for release %d: %w", releaseID, err)
	}
	return count, nil
}

// EntriesByUser lists a user's library entries.
func (s *Store) EntriesByUser(ctx context.Context, userID string) ([]*LibraryEntry, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+libraryEntryColumns+` FROM library_entries WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("entries by user %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []*LibraryEntry
	for rows.Next() {
		entry, err := scanLibraryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
