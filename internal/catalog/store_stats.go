package catalog

import (
	"context"
	"fmt"
)

// Stats summarizes table sizes for diagnostic output.
type Stats struct {
	Games              int
	Releases           int
	Mappings           int
	LibraryEntries     int
	UnresolvedReleases int
}

// Stats returns row counts per table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM games`, &stats.Games},
		{`SELECT COUNT(1) FROM releases`, &stats.Releases},
		{`SELECT COUNT(1) FROM external_ids`, &stats.Mappings},
		{`SELECT COUNT(1) FROM library_entries`, &stats.LibraryEntries},
		{`SELECT COUNT(1) FROM releases WHERE game_id IS NULL`, &stats.UnresolvedReleases},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("catalog stats: %w", err)
		}
	}
	return stats, nil
}
