package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MappingByNativeID fetches the mapping for a platform-native id, or nil when
// absent. This is the anchor lookup on the sync fast path.
func (s *Store) MappingByNativeID(ctx context.Context, platform Platform, nativeID string) (*ExternalIDMapping, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT platform, native_id, release_id, created_at, updated_at
         FROM external_ids WHERE platform = ? AND native_id = ?`,
		string(platform), nativeID,
	)

	var (
		platformRaw string
		native      string
		releaseID   int64
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)
	err := row.Scan(&platformRaw, &native, &releaseID, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mapping by native id %s/%s: %w", platform, nativeID, err)
	}

	mapping := &ExternalIDMapping{
		Platform:  Platform(platformRaw),
		NativeID:  native,
		ReleaseID: releaseID,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		mapping.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		mapping.UpdatedAt = updated
	}
	return mapping, nil
}

// InsertMappingIgnore writes a mapping with insert-or-ignore semantics: when a
// concurrent first-sighting job already anchored the native id, the existing
// row wins and no error is raised. Callers re-read afterwards to learn which
// release actually owns the id.
func (s *Store) InsertMappingIgnore(ctx context.Context, platform Platform, nativeID string, releaseID int64) error {
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO external_ids (platform, native_id, release_id, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (platform, native_id) DO NOTHING`,
		string(platform), nativeID, releaseID, timestamp(now), timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("insert mapping %s/%s: %w", platform, nativeID, err)
	}
	return nil
}

// RepointMappings moves every mapping from one release to another. Only merge
// routines call this; mappings are never silently re-pointed elsewhere.
func (s *Store) RepointMappings(ctx context.Context, fromReleaseID, toReleaseID int64) (int64, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE external_ids SET release_id = ?, updated_at = ? WHERE release_id = ?`,
		toReleaseID, timestamp(now), fromReleaseID,
	)
	if err != nil {
		return 0, fmt.Errorf("repoint mappings %d -> %d: %w", fromReleaseID, toReleaseID, err)
	}
	return res.RowsAffected()
}

// CountMappingsByRelease returns how many native ids anchor to a release.
func (s *Store) CountMappingsByRelease(ctx context.Context, releaseID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM external_ids WHERE release_id = ?`,
		releaseID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count mappings for release %d: %w", releaseID, err)
	}
	return count, nil
}
