package resolver_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"streamscout/internal/history"
	"streamscout/internal/manifestcache"
	"streamscout/internal/media"
	"streamscout/internal/metrics"
	"streamscout/internal/resolver"
	"streamscout/internal/services"
)

type stubLookup struct {
	mu    sync.Mutex
	ids   map[string]string
	calls []string
}

func (l *stubLookup) CanonicalID(_ context.Context, kind media.Kind, catalogID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, string(kind)+":"+catalogID)
	id, ok := l.ids[catalogID]
	return id, ok
}

type stubSniffer struct {
	mu     sync.Mutex
	result string
	err    error
	urls   []string
}

func (s *stubSniffer) Sniff(_ context.Context, embedURL string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, embedURL)
	if s.err != nil {
		return "", false, s.err
	}
	return s.result, s.result != "", nil
}

func (s *stubSniffer) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

func newResolver(t *testing.T, lookup *stubLookup, sniff *stubSniffer, opts ...resolver.Option) (*resolver.Resolver, *manifestcache.Cache) {
	t.Helper()
	cache := manifestcache.New(manifestcache.DefaultTTL)
	return resolver.New(lookup, sniff, cache, opts...), cache
}

func TestResolveMovieThenServeFromCache(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{"27205": "tt1375666"}}
	sniff := &stubSniffer{result: "https://cdn.example/x.m3u8"}
	r, _ := newResolver(t, lookup, sniff)
	ctx := context.Background()

	first, err := r.ResolveMovie(ctx, "27205", "")
	if err != nil {
		t.Fatalf("ResolveMovie: %v", err)
	}
	if !first.Found() || first.Cached {
		t.Fatalf("expected fresh resolution, got %#v", first)
	}
	want := media.Manifest{Kind: media.KindMovie, TMDBID: "27205", IMDbID: "tt1375666", Language: "Hindi", URL: "https://cdn.example/x.m3u8"}
	if *first.Manifest != want {
		t.Fatalf("unexpected manifest %#v", *first.Manifest)
	}
	if calls := sniff.Calls(); len(calls) != 1 || calls[0] != "https://embed.vidsrc.pk/movie/tt1375666?lang=Hindi" {
		t.Fatalf("unexpected sniff calls %v", calls)
	}

	second, err := r.ResolveMovie(ctx, "27205", "")
	if err != nil {
		t.Fatalf("ResolveMovie (cached): %v", err)
	}
	if !second.Cached || second.Manifest != first.Manifest {
		t.Fatalf("expected cached identical manifest, got %#v", second)
	}
	if len(sniff.Calls()) != 1 {
		t.Fatalf("expected no second sniff, got %v", sniff.Calls())
	}
}

func TestResolveSeriesLookupMissSkipsSniffAndCache(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{}}
	sniff := &stubSniffer{result: "https://cdn.example/never.m3u8"}
	r, cache := newResolver(t, lookup, sniff)

	res, err := r.ResolveSeries(context.Background(), "1399", 1, 1, "")
	if err != nil {
		t.Fatalf("ResolveSeries: %v", err)
	}
	if res.Found() || res.Reason != media.NotFoundLookup {
		t.Fatalf("expected lookup miss, got %#v", res)
	}
	if len(sniff.Calls()) != 0 {
		t.Fatalf("expected no sniff, got %v", sniff.Calls())
	}
	if cache.Len() != 0 {
		t.Fatalf("expected no cache write, got %d entries", cache.Len())
	}
	if len(lookup.calls) != 1 || lookup.calls[0] != "series:1399" {
		t.Fatalf("unexpected lookup calls %v", lookup.calls)
	}
}

func TestUnsupportedLanguageMatchesDefault(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{"27205": "tt1375666"}}
	sniff := &stubSniffer{result: "https://cdn.example/x.m3u8"}
	r, _ := newResolver(t, lookup, sniff)
	ctx := context.Background()

	klingon, err := r.ResolveMovie(ctx, "27205", "Klingon")
	if err != nil {
		t.Fatalf("ResolveMovie: %v", err)
	}
	omitted, err := r.ResolveMovie(ctx, "27205", "")
	if err != nil {
		t.Fatalf("ResolveMovie: %v", err)
	}
	if klingon.Language != "Hindi" || omitted.Language != "Hindi" {
		t.Fatalf("expected Hindi for both, got %q and %q", klingon.Language, omitted.Language)
	}
	if !omitted.Cached || omitted.Manifest != klingon.Manifest {
		t.Fatal("expected both requests to share the same cache entry")
	}
}

func TestSeriesEpisodesAreDistinct(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{"1399": "tt0944947"}}
	sniff := &stubSniffer{result: "https://cdn.example/ep.m3u8"}
	r, cache := newResolver(t, lookup, sniff)
	ctx := context.Background()

	for _, episode := range []int{1, 2} {
		res, err := r.ResolveSeries(ctx, "1399", 1, episode, "Tamil")
		if err != nil {
			t.Fatalf("ResolveSeries: %v", err)
		}
		if res.Cached || res.Manifest.Episode != episode || res.Manifest.Season != 1 {
			t.Fatalf("unexpected resolution %#v", res.Manifest)
		}
	}
	calls := sniff.Calls()
	if len(calls) != 2 || calls[1] != "https://embed.vidsrc.pk/tv/tt0944947/1-2?lang=Tamil" {
		t.Fatalf("unexpected sniff calls %v", calls)
	}
	if cache.Len() != 2 {
		t.Fatalf("expected two cache entries, got %d", cache.Len())
	}
	if _, ok := cache.Get("series-tt0944947-s1e2-Tamil"); !ok {
		t.Fatal("expected episode 2 cache key")
	}
}

func TestSniffMissIsNotFoundWithLanguage(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{"27205": "tt1375666"}}
	sniff := &stubSniffer{}
	r, cache := newResolver(t, lookup, sniff)

	res, err := r.ResolveMovie(context.Background(), "27205", "English")
	if err != nil {
		t.Fatalf("ResolveMovie: %v", err)
	}
	if res.Found() || res.Reason != media.NotFoundManifest || res.Language != "English" {
		t.Fatalf("unexpected resolution %#v", res)
	}
	if cache.Len() != 0 {
		t.Fatal("expected no cache write on sniff miss")
	}
}

func TestSniffErrorPropagates(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{"27205": "tt1375666"}}
	sniffErr := services.Wrap(services.ErrExternalTool, "sniffer", "open session", "browser session unavailable", errors.New("no chromium"))
	sniff := &stubSniffer{err: sniffErr}
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	r, _ := newResolver(t, lookup, sniff, resolver.WithHistory(store), resolver.WithMetrics(metrics.New()))

	_, err = r.ResolveMovie(context.Background(), "27205", "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected session error, got %v", err)
	}
	entries, err := store.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != history.OutcomeError || entries[0].Error == "" {
		t.Fatalf("expected error outcome recorded, got %#v", entries)
	}
}

func TestSpecialsSeasonResolves(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{"1399": "tt0944947"}}
	sniff := &stubSniffer{result: "https://cdn.example/special.m3u8"}
	r, cache := newResolver(t, lookup, sniff)

	res, err := r.ResolveSeries(context.Background(), "1399", 0, 1, "Hindi")
	if err != nil {
		t.Fatalf("ResolveSeries: %v", err)
	}
	if !res.Found() || res.Manifest.Season != 0 || res.Manifest.Episode != 1 {
		t.Fatalf("unexpected resolution %#v", res)
	}
	if calls := sniff.Calls(); len(calls) != 1 || calls[0] != "https://embed.vidsrc.pk/tv/tt0944947/0-1?lang=Hindi" {
		t.Fatalf("unexpected sniff calls %v", calls)
	}
	if _, ok := cache.Get("series-tt0944947-s0e1-Hindi"); !ok {
		t.Fatal("expected specials episode cached under its own key")
	}
}

func TestValidationRejectsBadEpisode(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{"1399": "tt0944947"}}
	r, _ := newResolver(t, lookup, &stubSniffer{})

	for _, tc := range []struct{ season, episode int }{{0, 0}, {1, 0}, {-1, 3}} {
		_, err := r.ResolveSeries(context.Background(), "1399", tc.season, tc.episode, "")
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("s%de%d: expected validation error, got %v", tc.season, tc.episode, err)
		}
	}
	if _, err := r.ResolveMovie(context.Background(), "  ", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
	if len(lookup.calls) != 0 {
		t.Fatalf("expected no lookups for invalid requests, got %v", lookup.calls)
	}
}

func TestHistoryRecordsOutcomesWithRequestID(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{"27205": "tt1375666"}}
	sniff := &stubSniffer{result: "https://cdn.example/x.m3u8"}
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	r, _ := newResolver(t, lookup, sniff, resolver.WithHistory(store))

	ctx := services.WithRequestID(context.Background(), "req-7")
	if _, err := r.ResolveMovie(ctx, "27205", "Bengali"); err != nil {
		t.Fatalf("ResolveMovie: %v", err)
	}
	if _, err := r.ResolveMovie(ctx, "27205", "Bengali"); err != nil {
		t.Fatalf("ResolveMovie: %v", err)
	}
	if _, err := r.ResolveMovie(ctx, "404", "Bengali"); err != nil {
		t.Fatalf("ResolveMovie: %v", err)
	}

	summary, err := store.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary[history.OutcomeFound] != 1 || summary[history.OutcomeCacheHit] != 1 || summary[history.OutcomeNotFoundLookup] != 1 {
		t.Fatalf("unexpected summary %v", summary)
	}
	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	for _, entry := range entries {
		if entry.RequestID != "req-7" || entry.Language != "Bengali" {
			t.Fatalf("unexpected entry %#v", entry)
		}
	}
}

func TestCustomEmbedBaseAndDefaultLanguage(t *testing.T) {
	lookup := &stubLookup{ids: map[string]string{"27205": "tt1375666"}}
	sniff := &stubSniffer{result: "https://cdn.example/x.m3u8"}
	r, _ := newResolver(t, lookup, sniff,
		resolver.WithEmbedBase("http://127.0.0.1:8080/"),
		resolver.WithDefaultLanguage("english"),
	)
	res, err := r.ResolveMovie(context.Background(), "27205", "Klingon")
	if err != nil {
		t.Fatalf("ResolveMovie: %v", err)
	}
	if res.Language != "English" {
		t.Fatalf("expected configured default language, got %q", res.Language)
	}
	if calls := sniff.Calls(); len(calls) != 1 || calls[0] != "http://127.0.0.1:8080/movie/tt1375666?lang=English" {
		t.Fatalf("unexpected sniff calls %v", calls)
	}
}
