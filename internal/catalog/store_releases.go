package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertRelease inserts a new platform release. A uniqueness violation on
// (platform, game_id) means a concurrent job created the same release; the
// error is returned unwrapped so the caller can re-read and converge.
func (s *Store) InsertRelease(ctx context.Context, release *Release) (*Release, error) {
	now := time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO releases (
            game_id, platform, platform_label, display_title, cover_url,
            created_at, updated_at, last_synced_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableInt64(release.GameID),
		string(release.Platform),
		nullableString(release.PlatformLabel),
		release.DisplayTitle,
		nullableString(release.CoverURL),
		timestamp(now),
		timestamp(now),
		nullableTime(release.LastSyncedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert release %q on %s: %w", release.DisplayTitle, release.Platform, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.ReleaseByID(ctx, id)
}

// ReleaseByID fetches a release by internal id, or nil when absent.
func (s *Store) ReleaseByID(ctx context.Context, id int64) (*Release, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+releaseColumns+` FROM releases WHERE id = ?`, id)
	release, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("release by id %d: %w", id, err)
	}
	return release, nil
}

// ReleaseByPlatformAndGame fetches the release for a (platform, game) pair,
// or nil when absent.
func (s *Store) ReleaseByPlatformAndGame(ctx context.Context, platform Platform, gameID int64) (*Release, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+releaseColumns+` FROM releases WHERE platform = ? AND game_id = ? ORDER BY id LIMIT 1`,
		string(platform), gameID,
	)
	release, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("release by platform %s game %d: %w", platform, gameID, err)
	}
	return release, nil
}

// ReleasesByGame lists every release owned by a game.
func (s *Store) ReleasesByGame(ctx context.Context, gameID int64) ([]*Release, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+releaseColumns+` FROM releases WHERE game_id = ? ORDER BY id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("releases by game %d: %w", gameID, err)
	}
	defer rows.Close()

	var releases []*Release
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
	}
	return releases, rows.Err()
}

// TouchRelease stamps a release's freshness fields after a sync pass.
func (s *Store) TouchRelease(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE releases SET updated_at = ?, last_synced_at = ? WHERE id = ?`,
		timestamp(now), timestamp(now), id,
	)
	if err != nil {
		return fmt.Errorf("touch release %d: %w", id, err)
	}
	return nil
}

// UpdateReleaseCover sets a release's cover URL.
func (s *Store) UpdateReleaseCover(ctx context.Context, id int64, coverURL string) error {
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE releases SET cover_url = ?, updated_at = ? WHERE id = ?`,
		nullableString(coverURL), timestamp(now), id,
	)
	if err != nil {
		return fmt.Errorf("update release cover %d: %w", id, err)
	}
	return nil
}

// RepointReleaseGame moves a release under a different game. A uniqueness
// violation means the target game already has a release on that platform;
// the caller folds the two releases together instead.
func (s *Store) RepointReleaseGame(ctx context.Context, releaseID, gameID int64) error {
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE releases SET game_id = ?, updated_at = ? WHERE id = ?`,
		gameID, timestamp(now), releaseID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("repoint release %d to game %d: %w", releaseID, gameID, err)
	}
	return nil
}

// DuplicatePlatformGameGroups returns groups of releases sharing a
// (platform, game_id) pair, up to limit groups. The unique index prevents new
// duplicates; groups found here predate it or were created around it.
func (s *Store) DuplicatePlatformGameGroups(ctx context.Context, limit int) ([][]*Release, error) {
	query := `SELECT platform, game_id FROM releases
        WHERE game_id IS NOT NULL
        GROUP BY platform, game_id HAVING COUNT(1) > 1
        ORDER BY platform, game_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("duplicate platform/game groups: %w", err)
	}
	defer rows.Close()

	type pair struct {
		platform Platform
		gameID   int64
	}
	var pairs []pair
	for rows.Next() {
		var p pair
		var platform string
		if err := rows.Scan(&platform, &p.gameID); err != nil {
			return nil, err
		}
		p.platform = Platform(platform)
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	groups := make([][]*Release, 0, len(pairs))
	for _, p := range pairs {
		group, err := s.releasesByPlatformAndGame(ctx, p.platform, p.gameID)
		if err != nil {
			return nil, err
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func (s *Store) releasesByPlatformAndGame(ctx context.Context, platform Platform, gameID int64) ([]*Release, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+releaseColumns+` FROM releases WHERE platform = ? AND game_id = ? ORDER BY id`,
		string(platform), gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("releases by platform %s game %d: %w", platform, gameID, err)
	}
	defer rows.Close()

	var releases []*Release
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
	}
	return releases, rows.Err()
}

// DeleteReleases removes releases by id. Only merge losers are ever deleted.
func (s *Store) DeleteReleases(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM releases WHERE id IN (`+makePlaceholders(len(ids))+`)`,
		int64Args(ids)...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete releases: %w", err)
	}
	return res.RowsAffected()
}
