package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Games", strconv.Itoa(stats.Games)},
				{"Releases", strconv.Itoa(stats.Releases)},
				{"Unresolved releases", strconv.Itoa(stats.UnresolvedReleases)},
				{"External id mappings", strconv.Itoa(stats.Mappings)},
				{"Library entries", strconv.Itoa(stats.LibraryEntries)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Table", "Rows"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
