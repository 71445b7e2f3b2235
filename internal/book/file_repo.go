package book

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
)

// FileRepo stores the whole collection as one JSON document on disk.
// Suited to small catalogs: every operation re-reads and rewrites the
// file, and concurrent writers can lose updates (see documentStore).
type FileRepo struct {
	path string
}

func NewFileRepo(path string) *FileRepo {
	return &FileRepo{path: path}
}

func (r *FileRepo) load(_ context.Context) document {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("filerepo: read %s: %v", r.path, err)
		}
		return emptyDocument()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// Corrupt file: keep serving an empty collection rather than
		// failing every request.
		log.Printf("filerepo: decode %s: %v", r.path, err)
		return emptyDocument()
	}
	doc.normalize()
	return doc
}

func (r *FileRepo) save(_ context.Context, doc document) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Printf("filerepo: encode: %v", err)
		return
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("filerepo: mkdir %s: %v", dir, err)
			return
		}
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		log.Printf("filerepo: write %s: %v", r.path, err)
	}
}

func (r *FileRepo) List(ctx context.Context, q Query) ([]Book, error) {
	return docList(ctx, r, q)
}

func (r *FileRepo) GetByID(ctx context.Context, id int) (Book, error) {
	return docGetByID(ctx, r, id)
}

func (r *FileRepo) Create(ctx context.Context, b *Book) error {
	return docCreate(ctx, r, b)
}

func (r *FileRepo) Update(ctx context.Context, id int, p Patch) (Book, error) {
	return docUpdate(ctx, r, id, p)
}

func (r *FileRepo) Delete(ctx context.Context, id int) (bool, error) {
	return docDelete(ctx, r, id)
}

func (r *FileRepo) NextID(ctx context.Context) (int, error) {
	return docNextID(ctx, r)
}

var _ Repository = (*FileRepo)(nil)
