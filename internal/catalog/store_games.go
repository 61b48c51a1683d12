package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertGame inserts a new canonical game. Uniqueness violations on title_key
// or igdb_id are returned unwrapped so callers can classify the race.
func (s *Store) InsertGame(ctx context.Context, game *Game) (*Game, error) {
	now := time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO games (
            canonical_title, title_key, igdb_id, summary, genres,
            developer, publisher, first_release_year, cover_url, cover_source,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.CanonicalTitle,
		game.TitleKey,
		nullableInt64(game.IGDBID),
		nullableString(game.Summary),
		nullableString(game.Genres),
		nullableString(game.Developer),
		nullableString(game.Publisher),
		nullableInt(game.FirstReleaseYear),
		nullableString(game.CoverURL),
		nullableString(game.CoverSource),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert game %q: %w", game.CanonicalTitle, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GameByID(ctx, id)
}

// UpdateGame writes every mutable game field by id.
func (s *Store) UpdateGame(ctx context.Context, game *Game) error {
	now := time.Now().UTC()

	_, err := s.execWithRetry(
		ctx,
		`UPDATE games SET
            canonical_title = ?, title_key = ?, igdb_id = ?, summary = ?, genres = ?,
            developer = ?, publisher = ?, first_release_year = ?, cover_url = ?, cover_source = ?,
            updated_at = ?
        WHERE id = ?`,
		game.CanonicalTitle,
		game.TitleKey,
		nullableInt64(game.IGDBID),
		nullableString(game.Summary),
		nullableString(game.Genres),
		nullableString(game.Developer),
		nullableString(game.Publisher),
		nullableInt(game.FirstReleaseYear),
		nullableString(game.CoverURL),
		nullableString(game.CoverSource),
		timestamp(now),
		game.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("update game %d: %w", game.ID, err)
	}
	game.UpdatedAt = now
	return nil
}

// GameByID fetches a game by internal id, or nil when absent.
func (s *Store) GameByID(ctx context.Context, id int64) (*Game, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("game by id %d: %w", id, err)
	}
	return game, nil
}

// GameByTitleKey fetches a game by canonical title key, or nil when absent.
func (s *Store) GameByTitleKey(ctx context.Context, titleKey string) (*Game, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+gameColumns+` FROM games WHERE title_key = ?`, titleKey)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("game by title key %q: %w", titleKey, err)
	}
	return game, nil
}

// GameByIGDBID fetches a game by external-catalog id, or nil when absent.
func (s *Store) GameByIGDBID(ctx context.Context, igdbID int64) (*Game, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+gameColumns+` FROM games WHERE igdb_id = ?`, igdbID)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("game by igdb id %d: %w", igdbID, err)
	}
	return game, nil
}

// GamesWithCover returns games whose cover URL is set, oldest first, up to
// limit. The cover-propagation job filters placeholders on top of this.
func (s *Store) GamesWithCover(ctx context.Context, limit int) ([]*Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE cover_url IS NOT NULL AND cover_url != '' ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("games with cover: %w", err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// DuplicateIGDBGroups returns groups of games sharing a non-null external
// catalog id, up to limit groups. Each group has at least two members.
func (s *Store) DuplicateIGDBGroups(ctx context.Context, limit int) ([][]*Game, error) {
	query := `SELECT igdb_id FROM games
        WHERE igdb_id IS NOT NULL
        GROUP BY igdb_id HAVING COUNT(1) > 1
        ORDER BY igdb_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("duplicate igdb groups: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	groups := make([][]*Game, 0, len(ids))
	for _, igdbID := range ids {
		group, err := s.gamesByIGDBID(ctx, igdbID)
		if err != nil {
			return nil, err
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func (s *Store) gamesByIGDBID(ctx context.Context, igdbID int64) ([]*Game, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+gameColumns+` FROM games WHERE igdb_id = ? ORDER BY id`,
		igdbID,
	)
	if err != nil {
		return nil, fmt.Errorf("games by igdb id %d: %w", igdbID, err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// DeleteGames removes games by id. Only merge losers are ever deleted.
func (s *Store) DeleteGames(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM games WHERE id IN (`+makePlaceholders(len(ids))+`)`,
		int64Args(ids)...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete games: %w", err)
	}
	return res.RowsAffected()
}
