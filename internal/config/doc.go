// Package config loads, normalizes, and validates streamscout configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// TMDB_API_KEY and STREAMSCOUT_API_TOKEN. The Config type centralizes every knob
// the server and CLI need: the TMDB credential, the embed host, the sniffer's
// navigation and polling policy, cache TTL, and history storage.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
