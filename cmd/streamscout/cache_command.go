package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"streamscout/internal/manifestcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the running server's manifest cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.CacheList(cmd.Context())
			if err != nil {
				return wrapClientError(err, client)
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if resp.Count == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			fmt.Fprintln(out, renderCacheTable(resp.Entries, time.Now()))
			fmt.Fprintf(out, "%d entries (ttl %s)\n", resp.Count, time.Duration(resp.TTLSeconds)*time.Second)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Drop one cache entry by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if _, err := client.CacheRemove(cmd.Context(), args[0]); err != nil {
				return wrapClientError(err, client)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed cache entry %s\n", args[0])
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.CacheClear(cmd.Context())
			if err != nil {
				return wrapClientError(err, client)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", resp.Removed)
			return nil
		},
	}
}

func renderCacheTable(entries []manifestcache.Entry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		var imdbID, lang string
		if entry.Manifest != nil {
			imdbID = entry.Manifest.IMDbID
			lang = entry.Manifest.Language
		}
		rows = append(rows, []string{
			entry.Key,
			imdbID,
			lang,
			formatRemaining(entry.ExpiresAt.Sub(now)),
		})
	}
	return renderTable(
		[]string{"Key", "IMDb", "Lang", "Expires In"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		return strconv.Itoa(int(d.Round(time.Second)/time.Second)) + "s"
	}
	return strconv.Itoa(minutes) + "m"
}
