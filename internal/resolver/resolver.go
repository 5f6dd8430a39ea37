package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"streamscout/internal/history"
	"streamscout/internal/language"
	"streamscout/internal/logging"
	"streamscout/internal/manifestcache"
	"streamscout/internal/media"
	"streamscout/internal/metrics"
	"streamscout/internal/services"
)

// CanonicalLookup maps a TMDB identifier to the IMDb identifier. Failures are absence.
type CanonicalLookup interface {
	CanonicalID(ctx context.Context, kind media.Kind, catalogID string) (string, bool)
}

// ManifestSniffer finds a manifest URL on an embed page.
type ManifestSniffer interface {
	Sniff(ctx context.Context, embedURL string) (string, bool, error)
}

// HistoryRecorder stores resolution outcomes.
type HistoryRecorder interface {
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// Resolver composes canonical lookup, the manifest cache and the sniffer.
type Resolver struct {
	lookup          CanonicalLookup
	sniffer         ManifestSniffer
	cache           *manifestcache.Cache
	history         HistoryRecorder
	metrics         *metrics.Recorder
	logger          *slog.Logger
	embedBase       string
	defaultLanguage string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHistory records every terminal outcome.
func WithHistory(recorder HistoryRecorder) Option {
	return func(r *Resolver) {
		r.history = recorder
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(r *Resolver) {
		r.metrics = rec
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.NewComponentLogger(logger, "resolver")
	}
}

// WithEmbedBase overrides the embed host (scheme and authority, no trailing slash).
func WithEmbedBase(base string) Option {
	return func(r *Resolver) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			r.embedBase = base
		}
	}
}

// WithDefaultLanguage sets the language used for unsupported or empty requests.
func WithDefaultLanguage(name string) Option {
	return func(r *Resolver) {
		r.defaultLanguage = language.Normalize(name)
	}
}

// New constructs a Resolver.
func New(lookup CanonicalLookup, sniffer ManifestSniffer, cache *manifestcache.Cache, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:          lookup,
		sniffer:         sniffer,
		cache:           cache,
		logger:          logging.NewComponentLogger(nil, "resolver"),
		embedBase:       media.DefaultEmbedBase,
		defaultLanguage: language.Default,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = manifestcache.New(manifestcache.DefaultTTL)
	}
	return r
}

// Cache exposes the manifest cache for admin surfaces.
func (r *Resolver) Cache() *manifestcache.Cache {
	return r.cache
}

// ResolveMovie resolves a single asset.
func (r *Resolver) ResolveMovie(ctx context.Context, catalogID, lang string) (media.Resolution, error) {
	return r.resolve(ctx, media.Asset{Kind: media.KindMovie, CatalogID: catalogID, Language: lang})
}

// ResolveSeries resolves one episode of an episodic asset.
func (r *Resolver) ResolveSeries(ctx context.Context, catalogID string, season, episode int, lang string) (media.Resolution, error) {
	return r.resolve(ctx, media.Asset{Kind: media.KindSeries, CatalogID: catalogID, Season: season, Episode: episode, Language: lang})
}

// resolve runs lookup, cache check and sniff in order. Every path ends in exactly one outcome.
func (r *Resolver) resolve(ctx context.Context, asset media.Asset) (res media.Resolution, err error) {
	start := time.Now()
	asset.CatalogID = strings.TrimSpace(asset.CatalogID)
	asset.Language = language.NormalizeWithFallback(asset.Language, r.defaultLanguage)
	res.Language = asset.Language

	ctx = services.WithAssetKind(ctx, string(asset.Kind))
	ctx = services.WithCatalogID(ctx, asset.CatalogID)
	logger := logging.WithContext(ctx, r.logger)

	if asset.CatalogID == "" {
		return res, services.Wrap(services.ErrValidation, "resolver", "resolve", "tmdb id must not be empty", nil)
	}
	if asset.Kind == media.KindSeries && (asset.Season < 0 || asset.Episode <= 0) {
		return res, services.Wrap(services.ErrValidation, "resolver", "resolve",
			fmt.Sprintf("season must be >= 0 and episode >= 1, got %d/%d", asset.Season, asset.Episode), nil)
	}

	var outcome history.Outcome
	defer func() {
		if err != nil {
			outcome = history.OutcomeError
		}
		r.finish(ctx, logger, asset, res, outcome, err, time.Since(start))
	}()

	canonicalID, ok := r.lookup.CanonicalID(ctx, asset.Kind, asset.CatalogID)
	if !ok {
		outcome = history.OutcomeNotFoundLookup
		res.Reason = media.NotFoundLookup
		return res, nil
	}
	asset.CanonicalID = canonicalID
	if err := asset.Validate(); err != nil {
		return res, services.Wrap(services.ErrValidation, "resolver", "resolve", "invalid asset", err)
	}

	key := asset.CacheKey()
	if cached, hit := r.cache.Get(key); hit {
		r.metrics.CacheLookup(true)
		outcome = history.OutcomeCacheHit
		res.Manifest = cached
		res.Cached = true
		return res, nil
	}
	r.metrics.CacheLookup(false)

	embedURL := asset.EmbedURL(r.embedBase)
	logger.Debug("sniffing embed page", logging.String("embed_url", embedURL), logging.String("cache_key", key))
	manifestURL, found, sniffErr := r.sniffer.Sniff(ctx, embedURL)
	if sniffErr != nil {
		return res, sniffErr
	}
	if !found {
		outcome = history.OutcomeNotFoundManifest
		res.Reason = media.NotFoundManifest
		return res, nil
	}

	manifest := asset.Manifest(manifestURL)
	r.cache.Set(key, manifest)
	outcome = history.OutcomeFound
	res.Manifest = manifest
	return res, nil
}

func (r *Resolver) finish(ctx context.Context, logger *slog.Logger, asset media.Asset, res media.Resolution, outcome history.Outcome, err error, elapsed time.Duration) {
	r.metrics.Resolution(string(asset.Kind), string(outcome))

	attrs := []logging.Attr{
		logging.String("outcome", string(outcome)),
		logging.String("lang", asset.Language),
		logging.Duration("elapsed", elapsed),
	}
	if asset.CanonicalID != "" {
		attrs = append(attrs, logging.String("imdb_id", asset.CanonicalID))
	}
	if asset.Kind == media.KindSeries {
		attrs = append(attrs, logging.Int("season", asset.Season), logging.Int("episode", asset.Episode))
	}
	if err != nil {
		logging.ErrorWithContext(logger, "resolution failed", "resolution_failed", append(attrs, logging.Error(err))...)
	} else {
		logger.Info("resolution finished", logging.Args(attrs...)...)
	}

	if r.history == nil {
		return
	}
	entry := history.Entry{
		Kind:       string(asset.Kind),
		TMDBID:     asset.CatalogID,
		IMDbID:     asset.CanonicalID,
		Language:   asset.Language,
		Outcome:    outcome,
		DurationMS: elapsed.Milliseconds(),
	}
	if asset.Kind == media.KindSeries {
		entry.Season = asset.Season
		entry.Episode = asset.Episode
	}
	if res.Manifest != nil {
		entry.ManifestURL = res.Manifest.URL
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		entry.RequestID = rid
	}
	if _, recErr := r.history.Record(context.WithoutCancel(ctx), entry); recErr != nil {
		logging.WarnWithContext(logger, "history record failed", "history_record_failed",
			logging.Error(recErr),
			logging.String(logging.FieldErrorHint, "check history.path permissions and disk space"),
			logging.String(logging.FieldImpact, "resolution served but missing from history"),
		)
	}
}
