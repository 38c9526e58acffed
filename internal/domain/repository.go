package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque byte payloads; callers own the encoding.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SimilarityBackend looks up catalog neighbours of a product in an external vector index
type SimilarityBackend interface {
	SimilarByID(ctx context.Context, productID string, topK int) ([]SimilarMatch, error)
}

// CatalogLoader produces the catalog snapshot served for the process lifetime
type CatalogLoader interface {
	Load(ctx context.Context) (*Catalog, error)
}
