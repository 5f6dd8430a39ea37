package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"streamscout/internal/config"
	"streamscout/internal/history"
	"streamscout/internal/logging"
	"streamscout/internal/manifestcache"
	"streamscout/internal/metrics"
	"streamscout/internal/resolver"
	"streamscout/internal/sniffer"
	"streamscout/internal/tmdb"
)

// stack is the wired resolution pipeline shared by serve and resolve.
type stack struct {
	resolver *resolver.Resolver
	cache    *manifestcache.Cache
	history  *history.Store
	metrics  *metrics.Recorder
	closers  []func() error
}

type stackBuilder func(cfg *config.Config, logger *slog.Logger) (*stack, error)

func newStack(cfg *config.Config, logger *slog.Logger) (*stack, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	s := &stack{metrics: metrics.New()}

	lookup, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL,
		tmdb.WithHTTPClient(&http.Client{Timeout: cfg.TMDBTimeout()}),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond),
		tmdb.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}

	browser := sniffer.NewRodBrowser(sniffer.RodOptions{
		Bin:            cfg.Sniffer.BrowserBin,
		Headless:       cfg.Sniffer.Headless,
		ViewportWidth:  cfg.Sniffer.ViewportWidth,
		ViewportHeight: cfg.Sniffer.ViewportHeight,
		MaxSessions:    int64(cfg.Sniffer.MaxSessions),
	}, logger)
	s.closers = append(s.closers, browser.Close)

	sniff := sniffer.New(browser, sniffer.Options{
		NavigationTimeout: cfg.NavigationTimeout(),
		PollAttempts:      cfg.Sniffer.PollAttempts,
		PollInterval:      cfg.PollInterval(),
		ManifestSuffix:    cfg.Sniffer.ManifestSuffix,
		BlockedTypes:      cfg.Sniffer.BlockedResourceTypes,
	}, logger, s.metrics)

	s.cache = manifestcache.New(cfg.CacheTTL(), manifestcache.WithLogger(logger))

	opts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithMetrics(s.metrics),
		resolver.WithEmbedBase(cfg.Embed.BaseURL),
		resolver.WithDefaultLanguage(cfg.Embed.DefaultLanguage),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		s.history = store
		s.closers = append(s.closers, store.Close)
		pruneHistory(store, cfg.HistoryRetention(), logger)
		opts = append(opts, resolver.WithHistory(store))
	}

	s.resolver = resolver.New(lookup, sniff, s.cache, opts...)
	return s, nil
}

// pruneHistory drops entries older than retention. Failure leaves history
// intact and is not fatal.
func pruneHistory(store *history.Store, retention time.Duration, logger *slog.Logger) {
	if retention <= 0 {
		return
	}
	logger = logging.NewComponentLogger(logger, "history")
	removed, err := store.Prune(context.Background(), time.Now().Add(-retention))
	if err != nil {
		logging.WarnWithContext(logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions and disk space"),
			logging.String(logging.FieldImpact, "old history entries are kept until the next start"),
		)
		return
	}
	if removed > 0 {
		logger.Info("history pruned", logging.Int64("removed", removed), logging.Duration("retention", retention))
	}
}

// Close releases the browser and history store in reverse order.
func (s *stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
