package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"streamscout/internal/media"
	"streamscout/internal/services"
)

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	// A resolution runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	res, err := s.deps.Resolver.ResolveMovie(ctx, r.PathValue("tmdbId"), r.URL.Query().Get("lang"))
	s.writeResolution(w, res, err)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	season, err := parseAtLeast("season", r.PathValue("season"), 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	episode, err := parseAtLeast("episode", r.PathValue("episode"), 1)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := context.WithoutCancel(r.Context())
	res, err := s.deps.Resolver.ResolveSeries(ctx, r.PathValue("tmdbId"), season, episode, r.URL.Query().Get("lang"))
	s.writeResolution(w, res, err)
}

func (s *Server) writeResolution(w http.ResponseWriter, res media.Resolution, err error) {
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	if !res.Found() {
		if res.Reason == media.NotFoundLookup {
			s.writeJSON(w, http.StatusNotFound, NotFoundResponse{Message: MessageIMDbNotFound})
			return
		}
		s.writeJSON(w, http.StatusNotFound, NotFoundResponse{Message: MessageManifestNotFound, Lang: res.Language})
		return
	}
	s.writeJSON(w, http.StatusOK, NewManifestResponse(res.Manifest, res.Cached))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		CacheEntries:   s.deps.Cache.Len(),
		HistoryEnabled: s.deps.History != nil,
		Uptime:         time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleCacheList(w http.ResponseWriter, _ *http.Request) {
	entries := s.deps.Cache.Entries()
	s.writeJSON(w, http.StatusOK, CacheListResponse{
		Count:      len(entries),
		TTLSeconds: int64(s.deps.Cache.TTL() / time.Second),
		Entries:    entries,
	})
}

func (s *Server) handleCacheFlush(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, CacheFlushResponse{Removed: s.deps.Cache.Flush()})
}

func (s *Server) handleCacheRemove(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !s.deps.Cache.Remove(key) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("cache entry %q not found", key))
		return
	}
	s.writeJSON(w, http.StatusOK, CacheFlushResponse{Removed: 1})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	entries, err := s.deps.History.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary, err := s.deps.History.Summary(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Summary: summary})
}

// parseAtLeast parses an episode coordinate. Season 0 holds specials, so
// seasons start at 0 and episodes at 1.
func parseAtLeast(name, raw string, lowest int) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < lowest {
		return 0, fmt.Errorf("%s must be an integer >= %d, got %q", name, lowest, raw)
	}
	return value, nil
}
