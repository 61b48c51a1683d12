package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ludex/internal/covers"
	"ludex/internal/logging"
)

func newCoversCommand(ctx *commandContext) *cobra.Command {
	coversCmd := &cobra.Command{
		Use:   "covers",
		Short: "Cover-art maintenance",
	}
	coversCmd.AddCommand(newCoversPropagateCommand(ctx))
	return coversCmd
}

func newCoversPropagateCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "propagate",
		Short: "Copy game covers onto releases that only have placeholders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.Covers.GameLimit
			}

			return ctx.withLock(func() error {
				store, err := ctx.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				report, err := covers.NewPropagator(store, logging.WithComponent(logger, "covers")).Run(cmd.Context(), limit)
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Run", report.RunID},
					{"Games examined", strconv.Itoa(report.GamesExamined)},
					{"Releases updated", strconv.Itoa(report.ReleasesUpdated)},
					{"Already covered", strconv.Itoa(report.ReleasesUpToDate)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Cap on games examined per run (0 uses the configured default)")
	return cmd
}
