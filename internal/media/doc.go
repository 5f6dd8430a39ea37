// Package media defines the domain types shared by the resolver, cache and API:
// asset kinds, resolvable assets with their cache key and embed URL templates,
// and resolved manifests.
package media
