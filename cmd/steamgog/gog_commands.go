package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"steamgog/internal/catalog"
	"steamgog/internal/config"
	"steamgog/internal/gogdb"
	"steamgog/internal/reconcile"
)

func newGOGCommand(ctx *commandContext) *cobra.Command {
	gogCmd := &cobra.Command{
		Use:   "gog",
		Short: "GOG catalog commands",
	}
	gogCmd.AddCommand(newGOGFetchCommand(ctx))
	gogCmd.AddCommand(newGOGIngestCommand(ctx))
	gogCmd.AddCommand(newGOGMatchCommand(ctx))
	gogCmd.AddCommand(newGOGSearchCommand(ctx))
	return gogCmd
}

func newGOGFetchCommand(ctx *commandContext) *cobra.Command {
	var archiveURL string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and extract the latest gogdb backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			client := gogdb.NewClient(cfg, logger)
			url := archiveURL
			if url == "" {
				url, err = client.LatestBackupURL(cmd.Context())
				if err != nil {
					return err
				}
			}

			archive, err := client.DownloadBackup(cmd.Context(), url, cfg.Paths.DumpDir)
			if err != nil {
				return err
			}
			root, err := client.ExtractBackup(archive, cfg.Paths.DumpDir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Extracted dump to %s\n", root)
			return nil
		},
	}

	cmd.Flags().StringVar(&archiveURL, "url", "", "Download a specific backup archive instead of the latest")
	return cmd
}

func newGOGIngestCommand(ctx *commandContext) *cobra.Command {
	var dumpPath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load an extracted gogdb dump into the catalog database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedStore(func(cfg *config.Config, logger *slog.Logger, store *catalog.Store) error {
				root := dumpPath
				if root == "" {
					found, err := gogdb.FindDumpRoot(cfg.Paths.DumpDir)
					if err != nil {
						return err
					}
					root = found
				} else {
					expanded, err := config.ExpandPath(root)
					if err != nil {
						return err
					}
					root = expanded
				}

				ingestor := catalog.NewIngestor(store, logger)
				stats, err := ingestor.IngestDump(cmd.Context(), root)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Ingested %s\n", root)
				fmt.Fprintf(out, "Products: %d  Prices: %d  Skipped: %d\n",
					stats.ProductsUpserted, stats.PricesUpserted, stats.SkippedProducts)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dumpPath, "dump", "", "Extracted dump root (defaults to the newest under dump_dir)")
	return cmd
}

func newGOGMatchCommand(ctx *commandContext) *cobra.Command {
	var minSubstringLen int

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run the tiered library-to-catalog matching passes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedStore(func(cfg *config.Config, logger *slog.Logger, store *catalog.Store) error {
				opts := reconcile.Options{MinSubstringLen: cfg.Matching.MinSubstringLen}
				if cmd.Flags().Changed("min-substring-len") {
					opts.MinSubstringLen = minSubstringLen
				}

				engine := reconcile.NewEngine(store, logger, opts)
				metrics, err := engine.Run(cmd.Context())
				if err != nil {
					return err
				}

				rows := [][]string{
					{"Seeded", strconv.FormatInt(metrics.Seeded, 10)},
					{"Matched (exact)", strconv.Itoa(metrics.MatchedExact)},
					{"Matched (normalized)", strconv.Itoa(metrics.MatchedNormalized)},
					{"Matched (substring)", strconv.Itoa(metrics.MatchedSubstring)},
					{"Skipped (ambiguous)", strconv.Itoa(metrics.SkippedAmbiguous)},
					{"Still unmatched", strconv.FormatInt(metrics.StillUnmatched, 10)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Count"}, rows, 1))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&minSubstringLen, "min-substring-len", reconcile.DefaultMinSubstringLen,
		"Minimum normalized title length for the substring tier")
	return cmd
}

func newGOGSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search gogdb.org for products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			client := gogdb.NewClient(cfg, logger)
			results, err := client.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results")
				return nil
			}

			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{
					strconv.FormatInt(result.GOGID, 10),
					result.Title,
					result.Type,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"GOG ID", "Title", "Type"}, rows, 0))
			return nil
		},
	}
}
