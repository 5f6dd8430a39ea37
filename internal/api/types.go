package api

import (
	"streamscout/internal/history"
	"streamscout/internal/manifestcache"
	"streamscout/internal/media"
)

// Not-found messages returned to clients.
const (
	MessageIMDbNotFound     = "IMDb ID not found"
	MessageManifestNotFound = "No m3u8 found"
)

// ManifestResponse is the success payload of the resolution routes.
type ManifestResponse struct {
	Success bool `json:"success"`
	Cached  bool `json:"cached,omitempty"`
	media.ManifestPayload
}

// NewManifestResponse flattens a resolved manifest into the success payload.
func NewManifestResponse(m *media.Manifest, cached bool) ManifestResponse {
	return ManifestResponse{Success: true, Cached: cached, ManifestPayload: m.Payload()}
}

// NotFoundResponse is returned with 404 when nothing could be resolved.
type NotFoundResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Lang    string `json:"lang,omitempty"`
}

// ErrorResponse is returned for validation and unexpected failures.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CacheListResponse lists live manifest cache entries.
type CacheListResponse struct {
	Count      int                   `json:"count"`
	TTLSeconds int64                 `json:"ttlSeconds"`
	Entries    []manifestcache.Entry `json:"entries"`
}

// CacheFlushResponse reports how many entries a flush or removal dropped.
type CacheFlushResponse struct {
	Removed int `json:"removed"`
}

// HistoryResponse lists recent resolution attempts.
type HistoryResponse struct {
	Entries []history.Entry         `json:"entries"`
	Summary map[history.Outcome]int `json:"summary"`
}

// HealthResponse is served on /healthz.
type HealthResponse struct {
	Status         string `json:"status"`
	CacheEntries   int    `json:"cacheEntries"`
	HistoryEnabled bool   `json:"historyEnabled"`
	Uptime         string `json:"uptime"`
}
