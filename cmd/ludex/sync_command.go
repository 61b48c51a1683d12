package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ludex/internal/logging"
	"ludex/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var userFlag string
	var fileFlag string
	var platformFlag string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Ingest a platform library export for one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			entries, err := syncer.LoadEntries(fileFlag)
			if err != nil {
				return err
			}
			if platform := strings.TrimSpace(platformFlag); platform != "" {
				for i := range entries {
					if entries[i].Platform == "" {
						entries[i].Platform = platform
					}
				}
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			_, mapper, _, err := ctx.newPipeline(store, logger)
			if err != nil {
				return err
			}
			runner := syncer.New(store, mapper, logging.WithComponent(logger, "syncer"))

			result, err := runner.Run(cmd.Context(), userFlag, entries)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Run", result.RunID},
				{"Entries", strconv.Itoa(result.Total)},
				{"Resolved", strconv.Itoa(result.Resolved)},
				{"Skipped", strconv.Itoa(result.Skipped)},
				{"Failed", strconv.Itoa(result.Failed)},
				{"Elapsed", result.Elapsed.Round(time.Millisecond).String()},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			for _, message := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s\n", message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userFlag, "user", "u", "", "User whose library is being synced")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "JSON file with the platform library export")
	cmd.Flags().StringVarP(&platformFlag, "platform", "p", "", "Default platform for entries that omit one")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
