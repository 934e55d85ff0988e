package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"steamgog/internal/catalog"
	"steamgog/internal/config"
	"steamgog/internal/steam"
)

func newSteamCommand(ctx *commandContext) *cobra.Command {
	steamCmd := &cobra.Command{
		Use:   "steam",
		Short: "Steam library commands",
	}
	steamCmd.AddCommand(newSteamExportCommand(ctx))
	return steamCmd
}

func newSteamExportCommand(ctx *commandContext) *cobra.Command {
	var (
		steamIDFlag string
		vanityFlag  string
		csvPath     string
		dbPath      string
		printSample int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch the owned-games list and store it locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireSteamKey(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if steamIDFlag != "" && vanityFlag != "" {
				return fmt.Errorf("--steamid and --vanity are mutually exclusive")
			}

			store, err := openExportStore(cfg, dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			client := steam.NewClient(cfg, logger)
			steamID, err := resolveIdentity(cmd, client, cfg, steamIDFlag, vanityFlag)
			if err != nil {
				return err
			}

			games, err := client.OwnedGames(cmd.Context(), steamID)
			if err != nil {
				return err
			}
			stored, err := store.UpsertLibraryGames(cmd.Context(), games)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored %d library games\n", stored)

			ordered, err := store.LibraryGames(cmd.Context())
			if err != nil {
				return err
			}

			if printSample > 0 {
				sample := ordered
				if len(sample) > printSample {
					sample = sample[:printSample]
				}
				rows := make([][]string, 0, len(sample))
				for _, game := range sample {
					rows = append(rows, []string{
						strconv.FormatInt(game.AppID, 10),
						game.Name,
						strconv.FormatInt(game.PlaytimeForeverMin, 10),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"App ID", "Name", "Playtime (min)"}, rows, 0, 2))
			}

			if csvPath != "" {
				expanded, err := config.ExpandPath(csvPath)
				if err != nil {
					return err
				}
				if err := steam.WriteCSV(expanded, ordered); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", expanded)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&steamIDFlag, "steamid", "", "SteamID64 to export (overrides config)")
	cmd.Flags().StringVar(&vanityFlag, "vanity", "", "Vanity profile name to resolve and export (overrides config)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also write the library to a CSV file")
	cmd.Flags().StringVar(&dbPath, "db", "", "Database file to write (defaults to the configured data directory)")
	cmd.Flags().IntVar(&printSample, "print-sample", 0, "Print the first N games by playtime after storing")
	return cmd
}

func openExportStore(cfg *config.Config, dbPath string) (*catalog.Store, error) {
	if dbPath == "" {
		return catalog.Open(cfg)
	}
	expanded, err := config.ExpandPath(dbPath)
	if err != nil {
		return nil, err
	}
	return catalog.OpenPath(expanded)
}

func resolveIdentity(cmd *cobra.Command, client *steam.Client, cfg *config.Config, steamIDFlag, vanityFlag string) (string, error) {
	if steamIDFlag != "" {
		return steamIDFlag, nil
	}
	vanity := vanityFlag
	if vanity == "" && cfg.Steam.SteamID != "" {
		return cfg.Steam.SteamID, nil
	}
	if vanity == "" {
		vanity = strings.TrimSpace(cfg.Steam.Vanity)
	}
	if vanity == "" {
		return "", fmt.Errorf("set steam_id or vanity in the [steam] config section, or pass --steamid/--vanity")
	}
	return client.ResolveVanity(cmd.Context(), vanity)
}
