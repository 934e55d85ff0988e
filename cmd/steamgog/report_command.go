package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"steamgog/internal/catalog"
	"steamgog/internal/config"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var unmatchedOnly bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the reconciliation state of the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, store *catalog.Store) error {
				assignments, err := store.Assignments(cmd.Context())
				if err != nil {
					return err
				}

				matched := 0
				rows := make([][]string, 0, len(assignments))
				for _, assignment := range assignments {
					if assignment.Matched {
						matched++
					}
					if unmatchedOnly && assignment.Matched {
						continue
					}
					rows = append(rows, assignmentRow(assignment))
				}

				out := cmd.OutOrStdout()
				if len(rows) > 0 {
					headers := []string{"App ID", "Title", "GOG ID", "Method", "Score"}
					if stdoutIsTerminal() {
						fmt.Fprintln(out, renderTable(headers, rows, 0, 2, 4))
					} else {
						// Plain tab-separated output pipes cleanly into cut and awk.
						fmt.Fprintln(out, strings.Join(headers, "\t"))
						for _, row := range rows {
							fmt.Fprintln(out, strings.Join(row, "\t"))
						}
					}
				}

				products, prices, library, _, err := store.Counts(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Library: %d games, %d matched, %d unmatched\n",
					library, matched, len(assignments)-matched)
				fmt.Fprintf(out, "Catalog: %d products, %d price rows\n", products, prices)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&unmatchedOnly, "unmatched", false, "List only unmatched library games")
	return cmd
}

func assignmentRow(assignment catalog.Assignment) []string {
	gogID := "-"
	if assignment.GOGID != nil {
		gogID = strconv.FormatInt(*assignment.GOGID, 10)
	}
	method := string(assignment.Method)
	if method == "" {
		method = "-"
	}
	score := "-"
	if assignment.Score != nil {
		score = strconv.FormatFloat(*assignment.Score, 'f', 2, 64)
	}
	return []string{
		strconv.FormatInt(assignment.AppID, 10),
		assignment.Title,
		gogID,
		method,
		score,
	}
}
