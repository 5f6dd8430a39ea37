// Package resolver turns a TMDB identifier plus language (and, for series, a
// season and episode) into a manifest URL.
//
// Each request normalizes its language, looks up the IMDb identifier, checks
// the manifest cache and, on a miss, sniffs the embed page once. Absence at
// the lookup or sniff stage is a not-found Resolution, not an error; only
// validation failures and session failures are returned as errors. Every
// terminal outcome is counted in metrics and, when configured, written to the
// history store.
package resolver
