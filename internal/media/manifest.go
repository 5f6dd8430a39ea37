package media

import "encoding/json"

// Manifest is a resolved stream manifest as stored in the cache and returned to clients.
// Season and Episode are zero for movies; season 0 is valid for series specials.
type Manifest struct {
	Kind     Kind   `json:"type"`
	TMDBID   string `json:"tmdbId"`
	IMDbID   string `json:"imdbId"`
	Language string `json:"lang"`
	Season   int    `json:"season"`
	Episode  int    `json:"episode"`
	URL      string `json:"m3u8Url"`
}

// ManifestPayload is the wire shape of a Manifest. Season and Episode are
// present for every series manifest and absent for movies.
type ManifestPayload struct {
	Kind     Kind   `json:"type"`
	TMDBID   string `json:"tmdbId"`
	IMDbID   string `json:"imdbId"`
	Language string `json:"lang"`
	Season   *int   `json:"season,omitempty"`
	Episode  *int   `json:"episode,omitempty"`
	URL      string `json:"m3u8Url"`
}

// Payload returns the wire shape of m.
func (m Manifest) Payload() ManifestPayload {
	p := ManifestPayload{
		Kind:     m.Kind,
		TMDBID:   m.TMDBID,
		IMDbID:   m.IMDbID,
		Language: m.Language,
		URL:      m.URL,
	}
	if m.Kind == KindSeries {
		season, episode := m.Season, m.Episode
		p.Season, p.Episode = &season, &episode
	}
	return p
}

func (m Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Payload())
}

// Resolution is the outcome of resolving an asset.
//
// Manifest is nil when nothing was found; Language is always the normalized
// language so not-found replies can echo it.
type Resolution struct {
	Manifest *Manifest
	Cached   bool
	Language string
	Reason   NotFoundReason
}

// NotFoundReason says which stage produced absence.
type NotFoundReason string

const (
	NotFoundNone     NotFoundReason = ""
	NotFoundLookup   NotFoundReason = "lookup"
	NotFoundManifest NotFoundReason = "manifest"
)

// Found reports whether a manifest was resolved.
func (r Resolution) Found() bool {
	return r.Manifest != nil
}
