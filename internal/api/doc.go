// Package api serves the HTTP surface of streamscout.
//
// Two public routes resolve manifests, GET /movie/{tmdbId} and
// GET /series/{tmdbId}/{season}/{episode}, both taking an optional lang query
// parameter. Admin routes under /api plus /metrics require a bearer token when
// one is configured. Resolutions are detached from the client connection so an
// early disconnect never abandons a browser session halfway.
//
// Client wraps the admin routes for the CLI.
package api
