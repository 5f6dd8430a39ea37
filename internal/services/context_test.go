package services_test

import (
	"context"
	"testing"

	"streamscout/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithAssetKind(ctx, "movie")
	ctx = services.WithCatalogID(ctx, "27205")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if kind, ok := services.AssetKindFromContext(ctx); !ok || kind != "movie" {
		t.Fatalf("unexpected asset kind: %v %v", kind, ok)
	}
	if id, ok := services.CatalogIDFromContext(ctx); !ok || id != "27205" {
		t.Fatalf("unexpected catalog id: %v %v", id, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithAssetKind(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.AssetKindFromContext(ctx); ok {
		t.Fatal("expected no asset kind value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
}
