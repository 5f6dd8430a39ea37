package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the server is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return wrapClientError(err, client)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:        %s (%s)\n", health.Status, client.BaseURL())
			fmt.Fprintf(out, "Uptime:        %s\n", health.Uptime)
			fmt.Fprintf(out, "Cache entries: %d\n", health.CacheEntries)
			fmt.Fprintf(out, "History:       %s\n", yesNo(health.HistoryEnabled))
			return nil
		},
	}
}
