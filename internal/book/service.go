package book

import (
	"context"

	"libraryapi/internal/page"
	"libraryapi/internal/query"
)

// Service provides catalog business logic.
type Service struct {
	books Repository
	loans ActiveLoanChecker
}

// NewService creates a new book service.
func NewService(books Repository, loans ActiveLoanChecker) *Service {
	return &Service{books: books, loans: loans}
}

// FindAll returns a page of books matching the filter template.
func (s *Service) FindAll(ctx context.Context, f Filter, req query.PageRequest) (page.Page[Book], error) {
	return s.books.List(ctx, f, req)
}

// GetByID returns a book by its storage identity.
func (s *Service) GetByID(ctx context.Context, id int64) (Book, error) {
	return s.books.GetByID(ctx, id)
}

// GetByISBN returns a book by its isbn. Used by the lending workflow to
// resolve a loan request's target book.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return s.books.GetByISBN(ctx, isbn)
}

// Create persists a new book. It fails with ErrDuplicateISBN when the isbn
// is already registered; the pre-check only gives a friendly error, the
// unique constraint in storage is the real enforcement point.
func (s *Service) Create(ctx context.Context, b *Book) error {
	exists, err := s.books.ExistsByISBN(ctx, b.ISBN)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateISBN
	}
	return s.books.Create(ctx, b)
}

// Update persists a book already mutated in memory. Callers load, mutate,
// then update.
func (s *Service) Update(ctx context.Context, b *Book) error {
	return s.books.Update(ctx, b)
}

// Delete removes a book. It fails with ErrActiveLoan while any loan on the
// book is still active; the pre-check only gives an early answer, the
// guarded delete in storage is the real enforcement point. Inactive loans
// are removed by the storage cascade.
func (s *Service) Delete(ctx context.Context, b Book) error {
	active, err := s.loans.ExistsActiveByBookID(ctx, b.ID)
	if err != nil {
		return err
	}
	if active {
		return ErrActiveLoan
	}
	return s.books.Delete(ctx, b.ID)
}
