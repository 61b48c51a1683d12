// Package syncer ingests a batch of platform library entries, resolving each
// title through the identity pipeline and upserting the user's ownership
// rows.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ludex/internal/catalog"
	"ludex/internal/logging"
	"ludex/internal/resolve"
)

// Entry is one title from a platform library export.
type Entry struct {
	Platform           string
	NativeID           string
	Title              string
	PlaytimeMinutes    int
	AchievementsEarned int
	AchievementsTotal  int
	LastPlayedAt       *time.Time
}

// Result summarizes one sync run. A failed entry never aborts the batch.
type Result struct {
	RunID    string
	Total    int
	Resolved int
	Skipped  int
	Failed   int
	Errors   []string
	Elapsed  time.Duration
}

// Syncer drives batches through resolution and library upserts.
type Syncer struct {
	store  *catalog.Store
	mapper *resolve.ReleaseMapper
	logger *slog.Logger
}

// New builds a syncer.
func New(store *catalog.Store, mapper *resolve.ReleaseMapper, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Syncer{store: store, mapper: mapper, logger: logger}
}

// Run resolves every entry for one user and upserts the user's library rows.
// Entries missing a platform, native id, or title are skipped; resolution
// failures are recorded and the batch continues. Re-running the same batch
// converges on the same rows.
func (s *Syncer) Run(ctx context.Context, userID string, entries []Entry) (*Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}

	start := time.Now()
	result := &Result{RunID: uuid.NewString(), Total: len(entries)}

	s.logger.Info("sync run started",
		logging.String("run_id", result.RunID),
		logging.String("user", userID),
		logging.Int("entries", len(entries)))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		platform, err := catalog.ParsePlatform(entry.Platform)
		if err != nil || strings.TrimSpace(entry.NativeID) == "" || strings.TrimSpace(entry.Title) == "" {
			result.Skipped++
			continue
		}

		releaseID, err := s.mapper.Resolve(ctx, platform, entry.NativeID, entry.Title)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s/%s %q: %v", platform, entry.NativeID, entry.Title, err))
			s.logger.Warn("entry failed to resolve",
				logging.String("run_id", result.RunID),
				logging.String("platform", string(platform)),
				logging.String("title", entry.Title),
				logging.Error(err))
			continue
		}

		upsert := &catalog.LibraryEntry{
			UserID:             userID,
			ReleaseID:          releaseID,
			PlaytimeMinutes:    entry.PlaytimeMinutes,
			AchievementsEarned: entry.AchievementsEarned,
			AchievementsTotal:  entry.AchievementsTotal,
			LastPlayedAt:       entry.LastPlayedAt,
		}
		if err := s.store.UpsertLibraryEntry(ctx, upsert); err != nil {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s/%s %q: %v", platform, entry.NativeID, entry.Title, err))
			continue
		}
		result.Resolved++
	}

	result.Elapsed = time.Since(start)
	s.logger.Info("sync run finished",
		logging.String("run_id", result.RunID),
		logging.String("user", userID),
		logging.Int("resolved", result.Resolved),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}
