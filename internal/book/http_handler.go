package book

import (
	"errors"
	"net/http"

	"bookcatalog/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register mounts the book routes under /books. The literal search and
// filter paths are more specific than /books/{book_id} and win over it.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /books/{$}", h.List)
	mux.HandleFunc("POST /books/{$}", h.Create)
	mux.HandleFunc("GET /books/search", h.Search)
	mux.HandleFunc("GET /books/filter", h.Filter)
	mux.HandleFunc("GET /books/{book_id}", h.Get)
	mux.HandleFunc("PUT /books/{book_id}", h.Update)
	mux.HandleFunc("DELETE /books/{book_id}", h.Delete)
}

// List handles GET /books/
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.List(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to list books", err)
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

// Get handles GET /books/{book_id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("book_id"))
	if err != nil {
		h.clientError(w, r, err)
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "failed to get book", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Create handles POST /books/
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := DecodeInput(r.Body)
	if err != nil {
		h.clientError(w, r, err)
		return
	}

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.serverError(w, r, "failed to create book", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Update handles PUT /books/{book_id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("book_id"))
	if err != nil {
		h.clientError(w, r, err)
		return
	}

	in, err := DecodeInput(r.Body)
	if err != nil {
		h.clientError(w, r, err)
		return
	}

	b, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.storeError(w, r, "failed to update book", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Delete handles DELETE /books/{book_id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("book_id"))
	if err != nil {
		h.clientError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.storeError(w, r, "failed to delete book", err)
		return
	}
	httpx.JSONDetail(w, http.StatusOK, "Book deleted")
}

// Search handles GET /books/search?search=
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	term, err := ParseSearch(r.URL.Query())
	if err != nil {
		h.clientError(w, r, err)
		return
	}

	books, err := h.service.Search(r.Context(), term)
	if err != nil {
		h.serverError(w, r, "failed to search books", err)
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

// Filter handles GET /books/filter?min=&max=
func (h *HTTPHandler) Filter(w http.ResponseWriter, r *http.Request) {
	years, err := ParseYearRange(r.URL.Query())
	if err != nil {
		h.clientError(w, r, err)
		return
	}

	books, err := h.service.Filter(r.Context(), years)
	if err != nil {
		h.serverError(w, r, "failed to filter books", err, zap.Stringer("years", years))
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

func (h *HTTPHandler) clientError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		httpx.LoggerFrom(r.Context()).Debug("request rejected", zap.Error(err))
		httpx.JSONValidationError(w, verr.Details)
	case errors.As(err, &maxBytesErr):
		httpx.JSONDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		httpx.LoggerFrom(r.Context()).Warn("failed to read request", zap.Error(err))
		httpx.JSONDetail(w, http.StatusBadRequest, "Bad Request")
	}
}

func (h *HTTPHandler) storeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.JSONDetail(w, http.StatusNotFound, "Book not found")
		return
	}
	h.serverError(w, r, msg, err)
}

func (h *HTTPHandler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	httpx.LoggerFrom(r.Context()).Error(msg, append(fields, zap.Error(err))...)
	httpx.JSONInternalError(w)
}
