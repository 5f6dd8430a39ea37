package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"streamscout/internal/metrics"
)

func TestRecorderExposesCollectors(t *testing.T) {
	rec := metrics.New()
	rec.Resolution("movie", "found")
	rec.Resolution("movie", "found")
	rec.Resolution("series", "not_found_lookup")
	rec.CacheLookup(true)
	rec.CacheLookup(false)
	rec.ObserveSniff(1500 * time.Millisecond)
	rec.SessionOpened()
	rec.SessionOpened()
	rec.SessionClosed()
	rec.BlockedRequest("Image")

	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var series int
	for _, family := range families {
		if family.GetName() == "streamscout_resolutions_total" {
			series = len(family.GetMetric())
		}
	}
	if series != 2 {
		t.Fatalf("expected 2 resolution series, got %d", series)
	}

	srv := httptest.NewServer(rec.Handler())
	t.Cleanup(srv.Close)
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	for _, want := range []string{
		`streamscout_resolutions_total{kind="movie",outcome="found"} 2`,
		`streamscout_cache_lookups_total{result="hit"} 1`,
		`streamscout_cache_lookups_total{result="miss"} 1`,
		`streamscout_browser_sessions_active 1`,
		`streamscout_blocked_requests_total{type="Image"} 1`,
		`streamscout_sniff_duration_seconds_count 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in scrape output", want)
		}
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *metrics.Recorder
	rec.Resolution("movie", "found")
	rec.CacheLookup(true)
	rec.ObserveSniff(time.Second)
	rec.SessionOpened()
	rec.SessionClosed()
	rec.BlockedRequest("Font")
	if rec.Registry() != nil {
		t.Fatal("expected nil registry")
	}
	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != 404 {
		t.Fatalf("expected 404 from nil recorder handler, got %d", w.Code)
	}
}
