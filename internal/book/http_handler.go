package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"libraryapi/internal/httpx"
	"libraryapi/internal/page"
	"libraryapi/internal/query"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type Response struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	ISBN      string    `json:"isbn"`
	Author    string    `json:"author"`
	Edition   int       `json:"edition"`
	Publisher string    `json:"publisher"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse projects a book to its external shape. Loan responses nest it.
func ToResponse(b Book) Response {
	return Response{
		ID:        b.ID,
		Title:     b.Title,
		ISBN:      b.ISBN,
		Author:    b.Author,
		Edition:   b.Edition,
		Publisher: b.Publisher,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type createBookRequest struct {
	Title     string `json:"title" validate:"required"`
	ISBN      string `json:"isbn" validate:"required,isbn"`
	Author    string `json:"author" validate:"required"`
	Edition   int    `json:"edition" validate:"min=1"`
	Publisher string `json:"publisher" validate:"required"`
}

type updateBookRequest struct {
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author" validate:"required"`
	Edition   int    `json:"edition" validate:"min=1"`
	Publisher string `json:"publisher" validate:"required"`
}

// List handles GET /api/books.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	filter := Filter{
		Title:     values.Get("title"),
		ISBN:      values.Get("isbn"),
		Author:    values.Get("author"),
		Publisher: values.Get("publisher"),
	}
	if raw := values.Get("edition"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "'edition' deve ser um número")
			return
		}
		filter.Edition = &n
	}

	req, err := query.ParsePageRequest(values, "title", query.Asc)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := Sorts.Column(req.Sort); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.FindAll(r.Context(), filter, req)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, page.Map(result, ToResponse))
}

// GetByID handles GET /api/books/{id}.
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	b, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(b))
}

// Create handles POST /api/books.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if errs := httpx.ValidateStruct(req); errs != nil {
		httpx.ValidationFailed(w, errs)
		return
	}

	b := New(req.Title, req.ISBN, req.Author, req.Edition, req.Publisher)
	if err := h.service.Create(r.Context(), &b); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ToResponse(b))
}

// Update handles PUT /api/books/{id}. The isbn is immutable and absent from
// the request shape.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if errs := httpx.ValidateStruct(req); errs != nil {
		httpx.ValidationFailed(w, errs)
		return
	}

	b, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	b.Update(req.Title, req.Author, req.Edition, req.Publisher)
	if err := h.service.Update(r.Context(), &b); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(b))
}

// Delete handles DELETE /api/books/{id}.
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	b, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), b); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateISBN), errors.Is(err, ErrActiveLoan):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		httpx.InternalError(w, r, err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "'id' deve ser um número")
		return 0, false
	}
	return id, true
}
