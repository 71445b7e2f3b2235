package book

import (
	"errors"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// Availability describes whether a book can currently be borrowed.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBorrowed  Availability = "borrowed"
)

// Book represents a catalog record. IDs are assigned by the repository
// on create and never change afterwards. CoverURL, Description and
// Rating are populated only through enrichment and stay nil when the
// lookup found nothing.
type Book struct {
	ID              int          `json:"id"`
	Title           string       `json:"title"`
	Author          string       `json:"author"`
	PublicationYear int          `json:"publication_year"`
	Genre           string       `json:"genre"`
	Pages           int          `json:"pages"`
	Availability    Availability `json:"availability"`
	CoverURL        *string      `json:"cover_url,omitempty"`
	Description     *string      `json:"description,omitempty"`
	Rating          *float64     `json:"rating,omitempty"`
}

// Query defines filters and pagination for listing books. Author and
// Genre match case-insensitively and exactly; Availability matches
// exactly. A Limit of zero means no cap.
type Query struct {
	Author       string
	Genre        string
	Availability Availability
	Offset       int
	Limit        int
}

// Patch carries a partial update. Nil fields were not supplied and must
// leave the stored value untouched; non-nil fields overwrite it.
type Patch struct {
	Title           *string
	Author          *string
	PublicationYear *int
	Genre           *string
	Pages           *int
	Availability    *Availability
	CoverURL        *string
	Description     *string
	Rating          *float64
}

// IsZero reports whether the patch carries no fields at all.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Author == nil && p.PublicationYear == nil &&
		p.Genre == nil && p.Pages == nil && p.Availability == nil &&
		p.CoverURL == nil && p.Description == nil && p.Rating == nil
}

// Apply overlays the supplied fields onto b, leaving the rest intact.
func (p Patch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.PublicationYear != nil {
		b.PublicationYear = *p.PublicationYear
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Pages != nil {
		b.Pages = *p.Pages
	}
	if p.Availability != nil {
		b.Availability = *p.Availability
	}
	if p.CoverURL != nil {
		b.CoverURL = p.CoverURL
	}
	if p.Description != nil {
		b.Description = p.Description
	}
	if p.Rating != nil {
		b.Rating = p.Rating
	}
}
