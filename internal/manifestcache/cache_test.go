package manifestcache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"streamscout/internal/manifestcache"
	"streamscout/internal/media"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func manifest(url string) *media.Manifest {
	return &media.Manifest{Kind: media.KindMovie, TMDBID: "27205", IMDbID: "tt1375666", Language: "Hindi", URL: url}
}

func TestGetWithinTTL(t *testing.T) {
	clock := newClock()
	cache := manifestcache.New(time.Hour, manifestcache.WithClock(clock.Now))

	m := manifest("https://cdn.example/a.m3u8")
	cache.Set("movie-tt1375666-Hindi", m)

	clock.Advance(30 * time.Minute)
	got, ok := cache.Get("movie-tt1375666-Hindi")
	if !ok || got != m {
		t.Fatalf("expected stored manifest, got %v %v", got, ok)
	}
}

func TestExpiredEntryIsPurgedThenReplaceable(t *testing.T) {
	clock := newClock()
	cache := manifestcache.New(time.Hour, manifestcache.WithClock(clock.Now))

	cache.Set("k", manifest("https://cdn.example/old.m3u8"))
	clock.Advance(61 * time.Minute)

	if _, ok := cache.Get("k"); ok {
		t.Fatal("expected expired entry to be absent")
	}
	if cache.Len() != 0 || len(cache.Entries()) != 0 {
		t.Fatal("expected no live entries after expiry")
	}
	if cache.Remove("k") {
		t.Fatal("expected expired entry to have been deleted by Get")
	}

	fresh := manifest("https://cdn.example/new.m3u8")
	cache.Set("k", fresh)
	got, ok := cache.Get("k")
	if !ok || got.URL != fresh.URL {
		t.Fatalf("expected fresh entry, got %v %v", got, ok)
	}
}

func TestExpiryBoundaryIsExclusive(t *testing.T) {
	clock := newClock()
	cache := manifestcache.New(time.Hour, manifestcache.WithClock(clock.Now))
	cache.Set("k", manifest("u"))
	clock.Advance(time.Hour)
	if _, ok := cache.Get("k"); ok {
		t.Fatal("expected entry to expire exactly at ttl")
	}
}

func TestSetOverwritesAndRefreshesExpiry(t *testing.T) {
	clock := newClock()
	cache := manifestcache.New(time.Hour, manifestcache.WithClock(clock.Now))
	cache.Set("k", manifest("first"))
	clock.Advance(50 * time.Minute)
	cache.Set("k", manifest("second"))
	clock.Advance(50 * time.Minute)

	got, ok := cache.Get("k")
	if !ok || got.URL != "second" {
		t.Fatalf("expected last write to win with refreshed expiry, got %v %v", got, ok)
	}
}

func TestEntriesFlushAndRemove(t *testing.T) {
	clock := newClock()
	cache := manifestcache.New(0, manifestcache.WithClock(clock.Now))
	if cache.TTL() != manifestcache.DefaultTTL {
		t.Fatalf("expected default ttl, got %v", cache.TTL())
	}
	cache.Set("b", manifest("b"))
	cache.Set("a", manifest("a"))
	cache.Set("", manifest("ignored"))
	cache.Set("nil", nil)

	entries := cache.Entries()
	if len(entries) != 2 || entries[0].Key != "a" || entries[1].Key != "b" {
		t.Fatalf("unexpected entries %#v", entries)
	}
	if !entries[0].ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", entries[0].ExpiresAt)
	}
	if !cache.Remove("a") {
		t.Fatal("expected remove to report presence")
	}
	if n := cache.Flush(); n != 1 {
		t.Fatalf("expected flush to drop 1 entry, got %d", n)
	}
	if cache.Len() != 0 {
		t.Fatal("expected empty cache after flush")
	}
}

func TestConcurrentAccess(t *testing.T) {
	cache := manifestcache.New(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("movie-tt%d-Hindi", j%10)
				want := fmt.Sprintf("https://cdn.example/%d.m3u8", j%10)
				cache.Set(key, manifest(want))
				if got, ok := cache.Get(key); ok && got.URL != want {
					t.Errorf("worker %d observed foreign value %q for %q", worker, got.URL, key)
				}
				_ = cache.Entries()
			}
		}(i)
	}
	wg.Wait()
	if cache.Len() != 10 {
		t.Fatalf("expected 10 keys, got %d", cache.Len())
	}
}
