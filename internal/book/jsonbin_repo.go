package book

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// JSONBinRepo stores the collection as one document in a jsonbin.io
// style bin. Reads fetch the whole bin, writes push it back; a failed
// read degrades to an empty collection and a failed write to a logged
// no-op, keeping the catalog serving during remote-store hiccups.
type JSONBinRepo struct {
	httpClient *http.Client
	baseURL    string
	binID      string
	masterKey  string
	accessKey  string
}

func NewJSONBinRepo(baseURL, binID, masterKey, accessKey string) *JSONBinRepo {
	return &JSONBinRepo{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		binID:     binID,
		masterKey: masterKey,
		accessKey: accessKey,
	}
}

func (r *JSONBinRepo) binURL(latest bool) string {
	u := fmt.Sprintf("%s/b/%s", r.baseURL, r.binID)
	if latest {
		u += "/latest"
	}
	return u
}

func (r *JSONBinRepo) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if r.masterKey != "" {
		req.Header.Set("X-Master-Key", r.masterKey)
	}
	if r.accessKey != "" {
		req.Header.Set("X-Access-Key", r.accessKey)
	}
}

// binEnvelope matches the read response: the stored document sits under
// "record".
type binEnvelope struct {
	Record document `json:"record"`
}

func (r *JSONBinRepo) load(ctx context.Context) document {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.binURL(true), nil)
	if err != nil {
		log.Printf("jsonbin: build read request: %v", err)
		return emptyDocument()
	}
	r.setHeaders(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("jsonbin: read bin %s: %v", r.binID, err)
		return emptyDocument()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("jsonbin: read bin %s: unexpected status %d", r.binID, resp.StatusCode)
		return emptyDocument()
	}

	var envelope binEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		log.Printf("jsonbin: decode bin %s: %v", r.binID, err)
		return emptyDocument()
	}
	doc := envelope.Record
	doc.normalize()
	return doc
}

func (r *JSONBinRepo) save(ctx context.Context, doc document) {
	body, err := json.Marshal(doc)
	if err != nil {
		log.Printf("jsonbin: encode document: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.binURL(false), bytes.NewReader(body))
	if err != nil {
		log.Printf("jsonbin: build write request: %v", err)
		return
	}
	r.setHeaders(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("jsonbin: write bin %s: %v", r.binID, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Printf("jsonbin: write bin %s: unexpected status %d", r.binID, resp.StatusCode)
	}
}

func (r *JSONBinRepo) List(ctx context.Context, q Query) ([]Book, error) {
	return docList(ctx, r, q)
}

func (r *JSONBinRepo) GetByID(ctx context.Context, id int) (Book, error) {
	return docGetByID(ctx, r, id)
}

func (r *JSONBinRepo) Create(ctx context.Context, b *Book) error {
	return docCreate(ctx, r, b)
}

func (r *JSONBinRepo) Update(ctx context.Context, id int, p Patch) (Book, error) {
	return docUpdate(ctx, r, id, p)
}

func (r *JSONBinRepo) Delete(ctx context.Context, id int) (bool, error) {
	return docDelete(ctx, r, id)
}

func (r *JSONBinRepo) NextID(ctx context.Context) (int, error) {
	return docNextID(ctx, r)
}

var _ Repository = (*JSONBinRepo)(nil)
