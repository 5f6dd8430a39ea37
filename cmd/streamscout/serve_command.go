package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"streamscout/internal/api"
	"streamscout/internal/logging"
	"streamscout/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP resolution server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), ctx, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override the configured listen address")
	return cmd
}

func runServer(cmdCtx context.Context, ctx *commandContext, bindOverride string) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	for _, failed := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "run `streamscout preflight` for the full report"),
			logging.String(logging.FieldImpact, "resolutions may fail until the check passes"),
		)
	}

	st, err := ctx.buildStack(cfg, logger)
	if err != nil {
		logger.Error("build resolution stack", logging.Error(err))
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("shutdown cleanup", logging.Error(err))
		}
	}()

	bind := cfg.Server.Bind
	if bindOverride != "" {
		bind = bindOverride
	}
	deps := api.Deps{
		Resolver: st.resolver,
		Cache:    st.cache,
		Metrics:  st.metrics,
		Logger:   logger,
	}
	if st.history != nil {
		deps.History = st.history
	}
	srv, err := api.NewServer(api.Options{
		Bind:     bind,
		Token:    cfg.Server.APIToken,
		LockPath: cfg.LockPath(),
	}, deps)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	logger.Info("streamscout starting",
		logging.String("bind", bind),
		logging.String("embed_base", cfg.Embed.BaseURL),
		logging.String("default_language", cfg.Embed.DefaultLanguage),
		logging.Bool("history", cfg.History.Enabled),
		logging.Bool("admin_auth", cfg.Server.APIToken != ""),
	)
	if err := srv.Run(signalCtx); err != nil {
		return err
	}
	logger.Info("streamscout stopped")
	return nil
}
