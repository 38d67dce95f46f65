package loan

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"libraryapi/internal/book"
	"libraryapi/internal/httpx"
	"libraryapi/internal/page"
	"libraryapi/internal/query"
)

type HTTPHandler struct {
	service *Service
	books   BookCatalog
}

func NewHTTPHandler(service *Service, books BookCatalog) *HTTPHandler {
	return &HTTPHandler{service: service, books: books}
}

type loanResponse struct {
	ID            int64         `json:"id"`
	Customer      string        `json:"customer"`
	CustomerEmail string        `json:"customer_email"`
	Book          book.Response `json:"book"`
	LoanDate      string        `json:"loan_date"`
	Active        bool          `json:"active"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func toResponse(l Loan) loanResponse {
	return loanResponse{
		ID:            l.ID,
		Customer:      l.Customer,
		CustomerEmail: l.CustomerEmail,
		Book:          book.ToResponse(l.Book),
		LoanDate:      l.LoanDate.Format("2006-01-02"),
		Active:        l.Active,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

type createLoanRequest struct {
	Customer      string `json:"customer" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	BookISBN      string `json:"book_isbn" validate:"required"`
}

type updateLoanRequest struct {
	Customer      string `json:"customer" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
}

// List handles GET /api/loans.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	filter := Filter{
		Customer:      values.Get("customer"),
		CustomerEmail: values.Get("customer_email"),
		BookISBN:      values.Get("book_isbn"),
	}

	req, err := query.ParsePageRequest(values, "customer", query.Asc)
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
	httpx.JSON(w, http.StatusOK, page.Map(result, toResponse))
}

// ListByBook handles GET /api/books/{id}/loans, independent of active state.
func (h *HTTPHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	b, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	req, err := query.ParsePageRequest(r.URL.Query(), "id", query.Desc)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := Sorts.Column(req.Sort); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.FindAllByBook(r.Context(), b.ID, req)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page.Map(result, toResponse))
}

// GetByID handles GET /api/loans/{id}.
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	l, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(l))
}

// Create handles POST /api/loans. The target book is resolved by isbn
// before the lending rules run.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if errs := httpx.ValidateStruct(req); errs != nil {
		httpx.ValidationFailed(w, errs)
		return
	}

	b, err := h.books.GetByISBN(r.Context(), req.BookISBN)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	l, err := h.service.Create(r.Context(), req.Customer, req.CustomerEmail, b)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(l))
}

// Update handles PUT /api/loans/{id}; only customer details change.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if errs := httpx.ValidateStruct(req); errs != nil {
		httpx.ValidationFailed(w, errs)
		return
	}

	l, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	l.Update(req.Customer, req.CustomerEmail)
	if err := h.service.Update(r.Context(), &l); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(l))
}

// Finalize handles POST /api/loans/{id}/finalize, marking the loan returned.
func (h *HTTPHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	l, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.Finalize(r.Context(), &l); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Delete handles DELETE /api/loans/{id}.
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	l, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), l); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, book.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBookLoaned), errors.Is(err, ErrActiveDeletion):
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
