package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"streamscout/internal/api"
	"streamscout/internal/config"
	"streamscout/internal/logging"
	"streamscout/internal/media"
	"streamscout/internal/services"
)

var errNotResolved = errors.New("manifest not resolved")

func newResolveCommand(ctx *commandContext) *cobra.Command {
	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a manifest in-process without a running server",
	}
	resolveCmd.AddCommand(newResolveMovieCommand(ctx))
	resolveCmd.AddCommand(newResolveSeriesCommand(ctx))
	return resolveCmd
}

func newResolveMovieCommand(ctx *commandContext) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "movie <tmdb-id>",
		Short: "Resolve a movie manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, ctx, func(st *stack, runCtx context.Context) (media.Resolution, error) {
				return st.resolver.ResolveMovie(runCtx, args[0], lang)
			})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Audio language (name or ISO code)")
	return cmd
}

func newResolveSeriesCommand(ctx *commandContext) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "series <tmdb-id> <season> <episode>",
		Short: "Resolve a TV episode manifest",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			season, err := parseEpisodeArg("season", args[1], 0)
			if err != nil {
				return err
			}
			episode, err := parseEpisodeArg("episode", args[2], 1)
			if err != nil {
				return err
			}
			return runResolve(cmd, ctx, func(st *stack, runCtx context.Context) (media.Resolution, error) {
				return st.resolver.ResolveSeries(runCtx, args[0], season, episode, lang)
			})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Audio language (name or ISO code)")
	return cmd
}

func runResolve(cmd *cobra.Command, ctx *commandContext, fn func(*stack, context.Context) (media.Resolution, error)) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cliLogger(cfg)
	if err != nil {
		return err
	}
	st, err := ctx.buildStack(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	res, err := fn(st, runCtx)
	if err != nil {
		_ = writeJSON(cmd, api.ErrorResponse{Error: err.Error()})
		return err
	}
	if !res.Found() {
		if res.Reason == media.NotFoundLookup {
			_ = writeJSON(cmd, api.NotFoundResponse{Message: api.MessageIMDbNotFound})
		} else {
			_ = writeJSON(cmd, api.NotFoundResponse{Message: api.MessageManifestNotFound, Lang: res.Language})
		}
		return errNotResolved
	}
	return writeJSON(cmd, api.NewManifestResponse(res.Manifest, res.Cached))
}

// cliLogger sends logs to stderr so stdout stays machine-readable.
func cliLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
}

func parseEpisodeArg(name, raw string, lowest int) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil || value < lowest {
		return 0, services.Wrap(services.ErrValidation, "cli", "resolve", fmt.Sprintf("%s must be an integer >= %d, got %q", name, lowest, raw), nil)
	}
	return value, nil
}
