// Package services defines shared utilities consumed by the resolver, the
// sniffer and the HTTP layer.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, asset kinds, and
//     catalog IDs for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses (not found vs validation vs internal).
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the service.
package services
