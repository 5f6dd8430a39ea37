package logging

import (
	"context"
	"log/slog"

	"streamscout/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAssetKind is the key for the kind of asset being resolved (movie or series).
	FieldAssetKind = "asset_kind"
	// FieldCatalogID is the key for the TMDB identifier under resolution.
	FieldCatalogID = "tmdb_id"
	// FieldEventType classifies a log line for filtering (e.g. sniff_navigation_failed).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if kind, ok := services.AssetKindFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldAssetKind, kind))
	}
	if id, ok := services.CatalogIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCatalogID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
