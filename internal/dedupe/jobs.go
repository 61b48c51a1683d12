package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"ludex/internal/catalog"
	"ludex/internal/logging"
	"ludex/internal/titles"
)

// Options controls a dedupe run.
type Options struct {
	// DryRun computes and reports what a merge would do without writing.
	DryRun bool
	// GroupLimit caps how many duplicate groups one run processes; zero
	// means no cap.
	GroupLimit int
}

// MergeGroup records one group's elected winner and the rows folding into it.
type MergeGroup struct {
	WinnerID int64
	LoserIDs []int64
}

// Report summarizes one merge run. Counts are totals across all groups; a
// dry run carries projected counts instead. Groups lists the per-group
// winner/loser election so a dry run shows exactly what a real run would do.
type Report struct {
	RunID           string
	DryRun          bool
	GroupsFound     int
	GroupsMerged    int
	Groups          []MergeGroup
	GamesDeleted    int64
	ReleasesDeleted int64
	ReleasesMoved   int64
	MappingsMoved   int64
	EntriesMoved    int64
	EntriesDropped  int64
	Failures        []string
}

// Jobs runs the batch dedupe passes.
type Jobs struct {
	store  *catalog.Store
	merger *Merger
	logger *slog.Logger
}

// NewJobs builds the dedupe job runner.
func NewJobs(store *catalog.Store, logger *slog.Logger) *Jobs {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Jobs{store: store, merger: NewMerger(store, logger), logger: logger}
}

// Merger exposes the underlying merge primitives for sync-time conflict
// folding.
func (j *Jobs) Merger() *Merger {
	return j.merger
}

// MergeGamesBySharedExternalID collapses games that resolved to the same
// external catalog id. A failed group is recorded and skipped; the run
// continues.
func (j *Jobs) MergeGamesBySharedExternalID(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), DryRun: opts.DryRun}

	groups, err := j.store.DuplicateIGDBGroups(ctx, opts.GroupLimit)
	if err != nil {
		return nil, err
	}
	report.GroupsFound = len(groups)

	for _, group := range groups {
		if opts.DryRun {
			if err := j.projectGameMerge(ctx, group, report); err != nil {
				report.Failures = append(report.Failures, groupFailure(group, err))
			}
			continue
		}
		if err := j.merger.mergeGameGroup(ctx, group, report); err != nil {
			report.Failures = append(report.Failures, groupFailure(group, err))
			continue
		}
		report.GroupsMerged++
	}

	j.logger.Info("game merge run finished",
		logging.String("run_id", report.RunID),
		logging.Bool("dry_run", report.DryRun),
		logging.Int("groups", report.GroupsFound),
		logging.Int("failures", len(report.Failures)))
	return report, nil
}

// MergeReleasesByPlatformAndGame collapses duplicate releases under one
// (platform, game) pair. New duplicates are blocked by the unique index;
// this cleans up rows that predate it.
func (j *Jobs) MergeReleasesByPlatformAndGame(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), DryRun: opts.DryRun}

	groups, err := j.store.DuplicatePlatformGameGroups(ctx, opts.GroupLimit)
	if err != nil {
		return nil, err
	}
	report.GroupsFound = len(groups)

	for _, group := range groups {
		anchors, err := j.anchorCounts(ctx, group)
		if err != nil {
			report.Failures = append(report.Failures, releaseGroupFailure(group, err))
			continue
		}
		winner, losers := pickWinnerRelease(group, anchors)
		loserIDs := make([]int64, 0, len(losers))
		for _, loser := range losers {
			loserIDs = append(loserIDs, loser.ID)
		}
		report.Groups = append(report.Groups, MergeGroup{WinnerID: winner.ID, LoserIDs: loserIDs})

		if opts.DryRun {
			if err := j.projectReleaseMerge(ctx, losers, report); err != nil {
				report.Failures = append(report.Failures, releaseGroupFailure(group, err))
			}
			continue
		}

		if err := j.merger.mergeReleases(ctx, winner.ID, loserIDs, report); err != nil {
			report.Failures = append(report.Failures, releaseGroupFailure(group, err))
			continue
		}
		report.GroupsMerged++
	}

	j.logger.Info("release merge run finished",
		logging.String("run_id", report.RunID),
		logging.Bool("dry_run", report.DryRun),
		logging.Int("groups", report.GroupsFound),
		logging.Int("failures", len(report.Failures)))
	return report, nil
}

func (j *Jobs) anchorCounts(ctx context.Context, group []*catalog.Release) (map[int64]int, error) {
	anchors := make(map[int64]int, len(group))
	for _, release := range group {
		count, err := j.store.CountMappingsByRelease(ctx, release.ID)
		if err != nil {
			return nil, err
		}
		anchors[release.ID] = count
	}
	return anchors, nil
}

// projectGameMerge tallies what merging a game group would touch. Releases
// are counted as moves; the rare platform-collision fold inside a real merge
// is not projected.
func (j *Jobs) projectGameMerge(ctx context.Context, group []*catalog.Game, report *Report) error {
	winner, losers := pickWinnerGame(group)
	report.Groups = append(report.Groups, gameMergeGroup(winner, losers))
	for _, loser := range losers {
		releases, err := j.store.ReleasesByGame(ctx, loser.ID)
		if err != nil {
			return err
		}
		report.ReleasesMoved += int64(len(releases))
	}
	report.GamesDeleted += int64(len(losers))
	return nil
}

// projectReleaseMerge tallies the child rows hanging off would-be losers.
// Projections count moves, not the per-user duplicate drops a real merge
// may additionally perform.
func (j *Jobs) projectReleaseMerge(ctx context.Context, losers []*catalog.Release, report *Report) error {
	for _, loser := range losers {
		mappings, err := j.store.CountMappingsByRelease(ctx, loser.ID)
		if err != nil {
			return err
		}
		report.MappingsMoved += int64(mappings)

		entries, err := j.store.CountLibraryEntriesByRelease(ctx, loser.ID)
		if err != nil {
			return err
		}
		report.EntriesMoved += int64(entries)
	}
	report.ReleasesDeleted += int64(len(losers))
	return nil
}

func gameMergeGroup(winner *catalog.Game, losers []*catalog.Game) MergeGroup {
	ids := make([]int64, 0, len(losers))
	for _, loser := range losers {
		ids = append(ids, loser.ID)
	}
	return MergeGroup{WinnerID: winner.ID, LoserIDs: ids}
}

func groupFailure(group []*catalog.Game, err error) string {
	if len(group) > 0 && group[0].IGDBID != nil {
		return fmt.Sprintf("igdb id %d: %v", *group[0].IGDBID, err)
	}
	return err.Error()
}

func releaseGroupFailure(group []*catalog.Release, err error) string {
	if len(group) > 0 && group[0].GameID != nil {
		return fmt.Sprintf("%s/game %d: %v", group[0].Platform, *group[0].GameID, err)
	}
	return err.Error()
}

// TitleGroup is one user's set of library entries whose titles normalize to
// the same key across platforms.
type TitleGroup struct {
	UserID   string
	TitleKey string
	Rows     []catalog.LibraryTitleRow
}

// TitleScanReport lists probable cross-platform duplicates per user. The scan
// never merges anything; a shared normalized title is a hint for a human, not
// proof of identity.
type TitleScanReport struct {
	RunID  string
	Groups []TitleGroup
}

// FlagLibraryTitleDuplicates groups each user's library entries by normalized
// release title and reports groups with more than one member.
func (j *Jobs) FlagLibraryTitleDuplicates(ctx context.Context, opts Options) (*TitleScanReport, error) {
	report := &TitleScanReport{RunID: uuid.NewString()}

	rows, err := j.store.LibraryTitleRows(ctx)
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		user string
		key  string
	}
	grouped := make(map[groupKey][]catalog.LibraryTitleRow)
	var order []groupKey
	for _, row := range rows {
		key := groupKey{user: row.UserID, key: scanTitleKey(row.DisplayTitle)}
		if key.key == "" {
			continue
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], row)
	}

	for _, key := range order {
		group := grouped[key]
		if len(group) < 2 {
			continue
		}
		report.Groups = append(report.Groups, TitleGroup{
			UserID:   key.user,
			TitleKey: key.key,
			Rows:     group,
		})
		if opts.GroupLimit > 0 && len(report.Groups) >= opts.GroupLimit {
			break
		}
	}

	j.logger.Info("library title scan finished",
		logging.String("run_id", report.RunID),
		logging.Int("groups", len(report.Groups)))
	return report, nil
}

// scanTitleKey reduces a display title to the aggressive comparison form the
// scan groups by: normalized, platform and edition qualifiers stripped,
// abbreviations expanded, lowercased.
func scanTitleKey(title string) string {
	value := titles.Normalize(title)
	value = titles.StripPlatformSuffix(value)
	value = titles.StripEditionQualifiers(value)
	value = titles.ExpandAbbreviations(value)
	return strings.ToLower(value)
}
