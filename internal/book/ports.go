package book

import (
	"context"

	"libcatalog/internal/platform/openlibrary"
)

//go:generate mockgen -source=ports.go -destination=mocks.go -package=book

// Repository defines the contract for book storage. One backend is
// selected at process start and held for the process lifetime.
type Repository interface {
	// List returns books matching q, ordered by id, sliced by
	// offset/limit. An empty result is not an error.
	List(ctx context.Context, q Query) ([]Book, error)
	// GetByID returns the book or ErrNotFound.
	GetByID(ctx context.Context, id int) (Book, error)
	// Create assigns the next id, persists the record and writes the
	// assigned id back into b.
	Create(ctx context.Context, b *Book) error
	// Update overlays the supplied fields onto the stored record and
	// persists it, returning the updated record or ErrNotFound.
	Update(ctx context.Context, id int, p Patch) (Book, error)
	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, id int) (bool, error)
	// NextID returns the id the next create would assign.
	NextID(ctx context.Context) (int, error)
}

// Enricher fetches supplementary metadata for a title. Implementations
// never fail the caller: an empty Enrichment stands in for any error.
type Enricher interface {
	Enrich(ctx context.Context, title string) openlibrary.Enrichment
}
