package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ludex/internal/catalog"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var platformFlag string
	var nativeIDFlag string

	cmd := &cobra.Command{
		Use:   "resolve <title>",
		Short: "Resolve a raw platform title to its canonical game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := catalog.ParsePlatform(platformFlag)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			resolver, mapper, _, err := ctx.newPipeline(store, logger)
			if err != nil {
				return err
			}

			rawTitle := args[0]
			var game *catalog.Game
			if nativeID := strings.TrimSpace(nativeIDFlag); nativeID != "" {
				releaseID, err := mapper.Resolve(cmd.Context(), platform, nativeID, rawTitle)
				if err != nil {
					return err
				}
				release, err := store.ReleaseByID(cmd.Context(), releaseID)
				if err != nil {
					return err
				}
				if release == nil || release.GameID == nil {
					return fmt.Errorf("release %d has no game", releaseID)
				}
				game, err = store.GameByID(cmd.Context(), *release.GameID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "release %d anchored to %s/%s\n", release.ID, platform, nativeID)
			} else {
				game, err = resolver.Resolve(cmd.Context(), rawTitle, platform)
				if err != nil {
					return err
				}
			}
			if game == nil {
				return fmt.Errorf("no game resolved for %q", rawTitle)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderGame(game))
			return nil
		},
	}

	cmd.Flags().StringVarP(&platformFlag, "platform", "p", "", "Platform the title came from (steam, psn, xbox, retroachievements)")
	cmd.Flags().StringVar(&nativeIDFlag, "native-id", "", "Platform-native id; anchors a release mapping when set")
	_ = cmd.MarkFlagRequired("platform")

	return cmd
}

func renderGame(game *catalog.Game) string {
	igdbID := "-"
	if game.IGDBID != nil {
		igdbID = strconv.FormatInt(*game.IGDBID, 10)
	}
	year := "-"
	if game.FirstReleaseYear != 0 {
		year = strconv.Itoa(game.FirstReleaseYear)
	}
	rows := [][]string{
		{"ID", strconv.FormatInt(game.ID, 10)},
		{"Title", game.CanonicalTitle},
		{"IGDB ID", igdbID},
		{"Year", year},
		{"Developer", orDash(game.Developer)},
		{"Publisher", orDash(game.Publisher)},
		{"Genres", orDash(game.Genres)},
		{"Cover", orDash(game.CoverURL)},
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
