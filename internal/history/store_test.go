package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"streamscout/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.Record(ctx, history.Entry{
		Kind: "movie", TMDBID: "27205", IMDbID: "tt1375666", Language: "Hindi",
		Outcome: history.OutcomeFound, ManifestURL: "https://cdn.example/x.m3u8",
		DurationMS: 2400, CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := store.Record(ctx, history.Entry{
		Kind: "series", TMDBID: "1399", Language: "Hindi", Season: 1, Episode: 1,
		Outcome: history.OutcomeNotFoundLookup, RequestID: "req-1", CreatedAt: base.Add(time.Minute),
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].TMDBID != "1399" || entries[0].Season != 1 || entries[0].RequestID != "req-1" {
		t.Fatalf("expected newest first, got %#v", entries[0])
	}
	got := entries[1]
	if got.ID != first.ID || got.Outcome != history.OutcomeFound || got.ManifestURL != "https://cdn.example/x.m3u8" || got.DurationMS != 2400 {
		t.Fatalf("unexpected entry %#v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Fatalf("expected created_at %v, got %v", base, got.CreatedAt)
	}

	limited, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestSummaryIncludesAllOutcomes(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, outcome := range []history.Outcome{history.OutcomeCacheHit, history.OutcomeCacheHit, history.OutcomeError} {
		if _, err := store.Record(ctx, history.Entry{Kind: "movie", TMDBID: "1", Language: "Hindi", Outcome: outcome}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(summary) != len(history.Outcomes) {
		t.Fatalf("expected every outcome present, got %v", summary)
	}
	if summary[history.OutcomeCacheHit] != 2 || summary[history.OutcomeError] != 1 || summary[history.OutcomeFound] != 0 {
		t.Fatalf("unexpected summary %v", summary)
	}
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)
	if _, err := store.Record(ctx, history.Entry{Kind: "movie", TMDBID: "1", Language: "Hindi", Outcome: history.OutcomeFound, CreatedAt: old}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := store.Record(ctx, history.Entry{Kind: "movie", TMDBID: "2", Language: "Hindi", Outcome: history.OutcomeFound}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", removed)
	}
	entries, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].TMDBID != "2" {
		t.Fatalf("unexpected remaining entries %#v", entries)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(context.Background(), history.Entry{Kind: "movie", TMDBID: "9", Language: "Tamil", Outcome: history.OutcomeFound}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	entries, err := reopened.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Language != "Tamil" {
		t.Fatalf("expected persisted entry, got %#v", entries)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := history.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func userVersion(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	return version
}

func TestOpenStampsSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := userVersion(t, path); got != 1 {
		t.Fatalf("expected user_version 1, got %d", got)
	}
}

func TestOpenUpgradesUnversionedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE unrelated (id INTEGER)"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = db.Close()

	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.Record(context.Background(), history.Entry{Kind: "movie", TMDBID: "1", Language: "Hindi", Outcome: history.OutcomeFound}); err != nil {
		t.Fatalf("Record after upgrade: %v", err)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatalf("bump user_version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
