package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"streamscout/internal/history"
	"streamscout/internal/media"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent resolution attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.History(cmd.Context(), limit)
			if err != nil {
				return wrapClientError(err, client)
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Entries) == 0 {
				fmt.Fprintln(out, "No resolutions recorded")
			} else {
				fmt.Fprintln(out, renderHistoryTable(resp.Entries))
			}
			fmt.Fprintln(out, formatSummary(resp.Summary))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderHistoryTable(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		target := entry.TMDBID
		if entry.Kind == string(media.KindSeries) {
			target = fmt.Sprintf("%s s%02de%02d", entry.TMDBID, entry.Season, entry.Episode)
		}
		rows = append(rows, []string{
			entry.CreatedAt.Local().Format(time.DateTime),
			entry.Kind,
			target,
			entry.Language,
			string(entry.Outcome),
			strconv.FormatInt(entry.DurationMS, 10) + "ms",
		})
	}
	return renderTable(
		[]string{"When", "Kind", "TMDB", "Lang", "Outcome", "Took"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func formatSummary(summary map[history.Outcome]int) string {
	parts := make([]string, 0, len(history.Outcomes))
	for _, outcome := range history.Outcomes {
		parts = append(parts, fmt.Sprintf("%s=%d", outcome, summary[outcome]))
	}
	return "Totals: " + strings.Join(parts, " ")
}
