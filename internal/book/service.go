package book

import (
	"context"

	"libcatalog/internal/platform/openlibrary"
)

// Service orchestrates the repository and the enrichment provider. It
// holds no state of its own; create and update are the only operations
// that touch the enricher, and they block on it before persisting.
type Service struct {
	repo     Repository
	enricher Enricher
}

func NewService(repo Repository, enricher Enricher) *Service {
	return &Service{repo: repo, enricher: enricher}
}

// List returns books matching the query. No enrichment is involved.
func (s *Service) List(ctx context.Context, q Query) ([]Book, error) {
	return s.repo.List(ctx, q)
}

// Get returns the book or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Create enriches the record by title, merges any found metadata and
// persists it. Enrichment failure never blocks creation; the record is
// stored with the enrichment fields absent.
func (s *Service) Create(ctx context.Context, b Book) (Book, error) {
	if b.Availability == "" {
		b.Availability = AvailabilityAvailable
	}

	mergeEnrichment(&b, s.enricher.Enrich(ctx, b.Title))

	if err := s.repo.Create(ctx, &b); err != nil {
		return Book{}, err
	}
	return b, nil
}

// Update overlays the supplied fields onto the stored record. When the
// title is among them, the record is re-enriched first and found
// metadata joins the patch; absent metadata leaves prior values alone.
func (s *Service) Update(ctx context.Context, id int, p Patch) (Book, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return Book{}, err
	}

	if p.Title != nil {
		e := s.enricher.Enrich(ctx, *p.Title)
		if e.CoverURL != nil {
			p.CoverURL = e.CoverURL
		}
		if e.Description != nil {
			p.Description = e.Description
		}
		if e.Rating != nil {
			p.Rating = e.Rating
		}
	}

	return s.repo.Update(ctx, id, p)
}

// Delete removes the book, returning ErrNotFound if it never existed.
func (s *Service) Delete(ctx context.Context, id int) error {
	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotFound
	}
	return nil
}

// mergeEnrichment copies found metadata onto the record. Enrichment is
// additive only: a nil field never clears what is already there.
func mergeEnrichment(b *Book, e openlibrary.Enrichment) {
	if e.CoverURL != nil {
		b.CoverURL = e.CoverURL
	}
	if e.Description != nil {
		b.Description = e.Description
	}
	if e.Rating != nil {
		b.Rating = e.Rating
	}
}
