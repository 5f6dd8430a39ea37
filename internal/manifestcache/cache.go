package manifestcache

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"streamscout/internal/logging"
	"streamscout/internal/media"
)

// DefaultTTL is the lifetime of a stored manifest.
const DefaultTTL = time.Hour

// Entry is a snapshot of one live cache record.
type Entry struct {
	Key       string          `json:"key"`
	Manifest  *media.Manifest `json:"manifest"`
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

type record struct {
	manifest  *media.Manifest
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a process-local, time-bounded manifest store. Expired records are
// evicted lazily on read. Stored manifests are shared with callers and must be
// treated as read-only.
type Cache struct {
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]record
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger for eviction and flush events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logging.NewComponentLogger(logger, "manifestcache")
	}
}

// New creates a cache whose records live for ttl. Non-positive ttl uses DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		logger:  logging.NewNop(),
		records: make(map[string]record),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured record lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the manifest stored under key if it has not expired.
// An expired record is deleted and reported as absent.
func (c *Cache) Get(key string) (*media.Manifest, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}

	now := c.now()
	c.mu.RLock()
	rec, ok := c.records[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if now.Before(rec.expiresAt) {
		return rec.manifest, true
	}

	c.mu.Lock()
	// A concurrent Set may have replaced the record since the read lock was released.
	if current, ok := c.records[key]; ok && !now.Before(current.expiresAt) {
		delete(c.records, key)
		c.logger.Debug("evicted expired manifest", logging.String("key", key))
	}
	c.mu.Unlock()
	return nil, false
}

// Set stores manifest under key, expiring ttl from now. Existing records are replaced.
func (c *Cache) Set(key string, manifest *media.Manifest) {
	key = strings.TrimSpace(key)
	if key == "" || manifest == nil {
		return
	}
	now := c.now()
	c.mu.Lock()
	c.records[key] = record{manifest: manifest, storedAt: now, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.records[key]
	delete(c.records, key)
	if ok {
		c.logger.Info("manifest cache entry removed", logging.String("key", key))
	}
	return ok
}

// Flush drops every record and returns how many were removed.
func (c *Cache) Flush() int {
	c.mu.Lock()
	n := len(c.records)
	c.records = make(map[string]record)
	c.mu.Unlock()
	c.logger.Info("manifest cache flushed", logging.Int("entries", n))
	return n
}

// Len returns the number of live records.
func (c *Cache) Len() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, rec := range c.records {
		if now.Before(rec.expiresAt) {
			n++
		}
	}
	return n
}

// Entries returns live records sorted by key.
func (c *Cache) Entries() []Entry {
	now := c.now()
	c.mu.RLock()
	entries := make([]Entry, 0, len(c.records))
	for key, rec := range c.records {
		if !now.Before(rec.expiresAt) {
			continue
		}
		entries = append(entries, Entry{Key: key, Manifest: rec.manifest, StoredAt: rec.storedAt, ExpiresAt: rec.expiresAt})
	}
	c.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}
