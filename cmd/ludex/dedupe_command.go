package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ludex/internal/dedupe"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	dedupeCmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Find and repair duplicate catalog rows",
	}

	dedupeCmd.AddCommand(newDedupeGamesCommand(ctx))
	dedupeCmd.AddCommand(newDedupeReleasesCommand(ctx))
	dedupeCmd.AddCommand(newDedupeLibraryCommand(ctx))

	return dedupeCmd
}

func newDedupeGamesCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var limit int

	cmd := &cobra.Command{
		Use:   "games",
		Short: "Merge games that share an external catalog id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMergeJob(ctx, cmd, dryRun, limit, func(jobs *dedupe.Jobs, opts dedupe.Options) (*dedupe.Report, error) {
				return jobs.MergeGamesBySharedExternalID(cmd.Context(), opts)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would merge without writing")
	cmd.Flags().IntVar(&limit, "limit", 0, "Cap on duplicate groups per run (0 uses the configured default)")
	return cmd
}

func newDedupeReleasesCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var limit int

	cmd := &cobra.Command{
		Use:   "releases",
		Short: "Merge duplicate releases under one platform and game",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMergeJob(ctx, cmd, dryRun, limit, func(jobs *dedupe.Jobs, opts dedupe.Options) (*dedupe.Report, error) {
				return jobs.MergeReleasesByPlatformAndGame(cmd.Context(), opts)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would merge without writing")
	cmd.Flags().IntVar(&limit, "limit", 0, "Cap on duplicate groups per run (0 uses the configured default)")
	return cmd
}

func runMergeJob(ctx *commandContext, cmd *cobra.Command, dryRun bool, limit int, run func(*dedupe.Jobs, dedupe.Options) (*dedupe.Report, error)) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.Dedupe.GroupLimit
	}
	opts := dedupe.Options{DryRun: dryRun, GroupLimit: limit}

	execute := func() error {
		store, err := ctx.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := run(dedupe.NewJobs(store, logger), opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderMergeReport(report))
		for _, failure := range report.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "group failed: %s\n", failure)
		}
		return nil
	}

	if dryRun {
		return execute()
	}
	return ctx.withLock(execute)
}

func renderMergeReport(report *dedupe.Report) string {
	mode := "merge"
	if report.DryRun {
		mode = "dry-run"
	}
	rows := [][]string{
		{"Run", report.RunID},
		{"Mode", mode},
		{"Groups found", strconv.Itoa(report.GroupsFound)},
		{"Groups merged", strconv.Itoa(report.GroupsMerged)},
		{"Games deleted", strconv.FormatInt(report.GamesDeleted, 10)},
		{"Releases moved", strconv.FormatInt(report.ReleasesMoved, 10)},
		{"Releases deleted", strconv.FormatInt(report.ReleasesDeleted, 10)},
		{"Mappings moved", strconv.FormatInt(report.MappingsMoved, 10)},
		{"Entries moved", strconv.FormatInt(report.EntriesMoved, 10)},
		{"Entries dropped", strconv.FormatInt(report.EntriesDropped, 10)},
		{"Failures", strconv.Itoa(len(report.Failures))},
	}
	out := renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
	if len(report.Groups) == 0 {
		return out
	}

	groupRows := make([][]string, 0, len(report.Groups))
	for _, group := range report.Groups {
		losers := make([]string, 0, len(group.LoserIDs))
		for _, id := range group.LoserIDs {
			losers = append(losers, strconv.FormatInt(id, 10))
		}
		groupRows = append(groupRows, []string{
			strconv.FormatInt(group.WinnerID, 10),
			strings.Join(losers, ", "),
		})
	}
	out += "\n" + renderTable([]string{"Winner", "Losers"}, groupRows, []columnAlignment{alignRight, alignLeft})
	return out
}

func newDedupeLibraryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "library",
		Short: "Report per-user entries whose titles normalize to the same game",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := dedupe.NewJobs(store, logger).FlagLibraryTitleDuplicates(cmd.Context(), dedupe.Options{GroupLimit: limit})
			if err != nil {
				return err
			}
			if len(report.Groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no probable duplicates found")
				return nil
			}

			rows := make([][]string, 0, len(report.Groups))
			for _, group := range report.Groups {
				platforms := make([]string, 0, len(group.Rows))
				for _, row := range group.Rows {
					platforms = append(platforms, string(row.Platform))
				}
				rows = append(rows, []string{
					group.UserID,
					group.TitleKey,
					strconv.Itoa(len(group.Rows)),
					strings.Join(platforms, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"User", "Normalized title", "Entries", "Platforms"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Cap on reported groups (0 for all)")
	return cmd
}
