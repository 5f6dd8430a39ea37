package history

import "time"

// Outcome is the terminal state of one resolution request.
type Outcome string

const (
	OutcomeCacheHit         Outcome = "cache_hit"
	OutcomeFound            Outcome = "found"
	OutcomeNotFoundLookup   Outcome = "not_found_lookup"
	OutcomeNotFoundManifest Outcome = "not_found_manifest"
	OutcomeError            Outcome = "error"
)

// Outcomes lists every outcome in display order.
var Outcomes = []Outcome{OutcomeCacheHit, OutcomeFound, OutcomeNotFoundLookup, OutcomeNotFoundManifest, OutcomeError}

// Entry is one recorded resolution attempt.
type Entry struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId,omitempty"`
	Kind        string    `json:"kind"`
	TMDBID      string    `json:"tmdbId"`
	IMDbID      string    `json:"imdbId,omitempty"`
	Language    string    `json:"lang"`
	Season      int       `json:"season"`
	Episode     int       `json:"episode"`
	Outcome     Outcome   `json:"outcome"`
	ManifestURL string    `json:"m3u8Url,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}
