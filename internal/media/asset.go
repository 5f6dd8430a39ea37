package media

import (
	"fmt"
	"net/url"
	"strconv"
)

// Kind distinguishes single assets (movies) from episodic ones (series episodes).
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// DefaultEmbedBase is the embed host used when none is configured.
const DefaultEmbedBase = "https://embed.vidsrc.pk"

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindMovie || k == KindSeries
}

// CatalogPath returns the TMDB path segment for the kind.
func (k Kind) CatalogPath() string {
	if k == KindSeries {
		return "tv"
	}
	return "movie"
}

// Asset identifies one resolvable piece of content after language normalization
// and canonical ID lookup.
type Asset struct {
	Kind        Kind
	CatalogID   string // TMDB identifier supplied by the caller
	CanonicalID string // IMDb identifier used by the embed host
	Season      int
	Episode     int
	Language    string
}

// Validate checks the asset is complete enough to key and embed.
func (a Asset) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("unknown asset kind %q", a.Kind)
	}
	if a.CanonicalID == "" {
		return fmt.Errorf("canonical id is required")
	}
	if a.Language == "" {
		return fmt.Errorf("language is required")
	}
	if a.Kind == KindSeries && (a.Season < 0 || a.Episode <= 0) {
		return fmt.Errorf("season must be >= 0 and episode >= 1, got s%de%d", a.Season, a.Episode)
	}
	return nil
}

// CacheKey returns the manifest cache key for the asset.
//
//	movie-{canonicalId}-{lang}
//	series-{canonicalId}-s{season}e{episode}-{lang}
func (a Asset) CacheKey() string {
	if a.Kind == KindSeries {
		return string(a.Kind) + "-" + a.CanonicalID + "-s" + strconv.Itoa(a.Season) + "e" + strconv.Itoa(a.Episode) + "-" + a.Language
	}
	return string(a.Kind) + "-" + a.CanonicalID + "-" + a.Language
}

// EmbedURL builds the third-party embed page URL for the asset under base.
// An empty base uses DefaultEmbedBase.
func (a Asset) EmbedURL(base string) string {
	if base == "" {
		base = DefaultEmbedBase
	}
	lang := url.QueryEscape(a.Language)
	if a.Kind == KindSeries {
		return fmt.Sprintf("%s/tv/%s/%d-%d?lang=%s", base, url.PathEscape(a.CanonicalID), a.Season, a.Episode, lang)
	}
	return fmt.Sprintf("%s/movie/%s?lang=%s", base, url.PathEscape(a.CanonicalID), lang)
}

// Manifest pairs the asset with a discovered manifest URL.
func (a Asset) Manifest(manifestURL string) *Manifest {
	m := &Manifest{
		Kind:     a.Kind,
		TMDBID:   a.CatalogID,
		IMDbID:   a.CanonicalID,
		Language: a.Language,
		URL:      manifestURL,
	}
	if a.Kind == KindSeries {
		m.Season = a.Season
		m.Episode = a.Episode
	}
	return m
}
