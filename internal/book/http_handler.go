package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"libcatalog/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// CreateRequest is the POST /books body. Unknown fields are rejected by
// the decoder before validation runs.
type CreateRequest struct {
	Title           string `json:"title" validate:"required"`
	Author          string `json:"author" validate:"required"`
	PublicationYear int    `json:"publication_year" validate:"required"`
	Genre           string `json:"genre" validate:"required"`
	Pages           int    `json:"pages" validate:"required,gt=0"`
	Availability    string `json:"availability" validate:"omitempty,oneof=available borrowed"`
}

// UpdateRequest is the PUT /books/{id} body. Every field is optional;
// pointers distinguish "omitted" from "explicitly supplied".
type UpdateRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1"`
	Author          *string `json:"author" validate:"omitempty,min=1"`
	PublicationYear *int    `json:"publication_year"`
	Genre           *string `json:"genre" validate:"omitempty,min=1"`
	Pages           *int    `json:"pages" validate:"omitempty,gt=0"`
	Availability    *string `json:"availability" validate:"omitempty,oneof=available borrowed"`
}

func (req UpdateRequest) patch() Patch {
	p := Patch{
		Title:           req.Title,
		Author:          req.Author,
		PublicationYear: req.PublicationYear,
		Genre:           req.Genre,
		Pages:           req.Pages,
	}
	if req.Availability != nil {
		availability := Availability(*req.Availability)
		p.Availability = &availability
	}
	return p
}

func decodeBody(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// List handles GET /books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{
		Author:       query.Get("author"),
		Genre:        query.Get("genre"),
		Availability: Availability(query.Get("availability")),
	}

	if a := params.Availability; a != "" && a != AvailabilityAvailable && a != AvailabilityBorrowed {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameter", []httpx.ErrorDetail{
			{Field: "availability", Message: "availability must be one of: available borrowed"},
		})
		return
	}

	offset, _ := strconv.Atoi(query.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	params.Offset = offset
	params.Limit = limit

	books, err := h.service.List(r.Context(), params)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]any{
		"offset": offset,
		"limit":  limit,
		"count":  len(books),
	})
}

// GetByID handles GET /books/{id}
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeBody(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON for this endpoint", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", details)
		return
	}

	created, err := h.service.Create(r.Context(), Book{
		Title:           req.Title,
		Author:          req.Author,
		PublicationYear: req.PublicationYear,
		Genre:           req.Genre,
		Pages:           req.Pages,
		Availability:    Availability(req.Availability),
	})
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccessCreated(w, r, created)
}

// Update handles PUT /books/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := decodeBody(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON for this endpoint", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", details)
		return
	}

	p := req.patch()
	if p.IsZero() {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "At least one field must be supplied", nil)
		return
	}

	updated, err := h.service.Update(r.Context(), id, p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, updated, nil)
}

// Delete handles DELETE /books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]string{"message": "book deleted"}, nil)
}

func (h *HTTPHandler) bookID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Book id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
