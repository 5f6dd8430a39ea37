// Package tmdb wraps the TMDB external_ids endpoints used to translate TMDB
// catalog identifiers into the IMDb identifiers the embed host expects.
//
// Requests are rate limited through golang.org/x/time/rate. CanonicalID is the
// entry point for request handling: it never returns an error and reports
// lookup failures as absence after logging them.
package tmdb
