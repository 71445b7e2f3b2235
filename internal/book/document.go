package book

import (
	"context"
	"strings"
)

// document is the persistence unit of the whole-collection backends:
// every read loads it completely and every write rewrites it. The
// next_id counter is explicit and only ever incremented, so ids are
// never reused after a delete.
type document struct {
	Books  []Book `json:"books"`
	NextID int    `json:"next_id"`
}

func emptyDocument() document {
	return document{Books: []Book{}, NextID: 1}
}

// normalize repairs a freshly decoded document so the counter invariant
// holds even for hand-edited data.
func (d *document) normalize() {
	if d.Books == nil {
		d.Books = []Book{}
	}
	if d.NextID < 1 {
		d.NextID = 1
	}
	for _, b := range d.Books {
		if b.ID >= d.NextID {
			d.NextID = b.ID + 1
		}
	}
}

func (d *document) indexOf(id int) int {
	for i := range d.Books {
		if d.Books[i].ID == id {
			return i
		}
	}
	return -1
}

// filter applies case-insensitive exact matching on author and genre,
// exact matching on availability, then offset/limit slicing.
func (d *document) filter(q Query) []Book {
	matched := make([]Book, 0, len(d.Books))
	for _, b := range d.Books {
		if q.Author != "" && !strings.EqualFold(b.Author, q.Author) {
			continue
		}
		if q.Genre != "" && !strings.EqualFold(b.Genre, q.Genre) {
			continue
		}
		if q.Availability != "" && b.Availability != q.Availability {
			continue
		}
		matched = append(matched, b)
	}

	if q.Offset >= len(matched) {
		return []Book{}
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched
}

// documentStore is implemented by backends that persist the collection
// as one document. load never fails (it degrades to an empty document)
// and save never fails the caller (it degrades to a logged no-op); this
// asymmetry trades strictness for availability and is intentional.
//
// The read-modify-write cycle below is not serialized: two concurrent
// creates can observe the same next_id and collide. This is a known
// limitation of the document backends, not of the relational one.
type documentStore interface {
	load(ctx context.Context) document
	save(ctx context.Context, d document)
}

func docList(ctx context.Context, s documentStore, q Query) ([]Book, error) {
	doc := s.load(ctx)
	return doc.filter(q), nil
}

func docGetByID(ctx context.Context, s documentStore, id int) (Book, error) {
	doc := s.load(ctx)
	i := doc.indexOf(id)
	if i < 0 {
		return Book{}, ErrNotFound
	}
	return doc.Books[i], nil
}

func docCreate(ctx context.Context, s documentStore, b *Book) error {
	doc := s.load(ctx)
	b.ID = doc.NextID
	doc.Books = append(doc.Books, *b)
	doc.NextID++
	s.save(ctx, doc)
	return nil
}

func docUpdate(ctx context.Context, s documentStore, id int, p Patch) (Book, error) {
	doc := s.load(ctx)
	i := doc.indexOf(id)
	if i < 0 {
		return Book{}, ErrNotFound
	}
	p.Apply(&doc.Books[i])
	s.save(ctx, doc)
	return doc.Books[i], nil
}

func docDelete(ctx context.Context, s documentStore, id int) (bool, error) {
	doc := s.load(ctx)
	i := doc.indexOf(id)
	if i < 0 {
		return false, nil
	}
	doc.Books = append(doc.Books[:i], doc.Books[i+1:]...)
	s.save(ctx, doc)
	return true, nil
}

func docNextID(ctx context.Context, s documentStore) (int, error) {
	doc := s.load(ctx)
	return doc.NextID, nil
}
