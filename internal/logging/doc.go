// Package logging assembles structured slog loggers and formatting helpers used
// across streamscout services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so handlers and the resolver can
// tag log lines with correlation IDs, asset kinds and TMDB identifiers. The
// package also provides a no-op logger for tests and wiring code that cannot fail.
package logging
