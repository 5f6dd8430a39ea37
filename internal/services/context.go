package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	assetKindKey contextKey = "asset_kind"
	catalogIDKey contextKey = "catalog_id"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithAssetKind annotates context with the asset kind being resolved (movie/series).
func WithAssetKind(ctx context.Context, kind string) context.Context {
	if kind == "" {
		return ctx
	}
	return context.WithValue(ctx, assetKindKey, kind)
}

// AssetKindFromContext returns the asset kind if present.
func AssetKindFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(assetKindKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCatalogID annotates context with the catalog (TMDB) identifier under resolution.
func WithCatalogID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, catalogIDKey, id)
}

// CatalogIDFromContext returns the catalog identifier if present.
func CatalogIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(catalogIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
