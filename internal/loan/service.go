package loan

import (
	"context"
	"time"

	"libraryapi/internal/book"
	"libraryapi/internal/page"
	"libraryapi/internal/query"
)

// Service provides lending business logic.
type Service struct {
	loans Repository
}

// NewService creates a new loan service.
func NewService(loans Repository) *Service {
	return &Service{loans: loans}
}

// FindAll returns a page of loans matching the filter template.
func (s *Service) FindAll(ctx context.Context, f Filter, req query.PageRequest) (page.Page[Loan], error) {
	return s.loans.List(ctx, f, req)
}

// FindAllByBook returns a page of one book's loans, active or not.
func (s *Service) FindAllByBook(ctx context.Context, bookID int64, req query.PageRequest) (page.Page[Loan], error) {
	return s.loans.ListByBook(ctx, bookID, req)
}

// GetByID returns a loan by its storage identity.
func (s *Service) GetByID(ctx context.Context, id int64) (Loan, error) {
	return s.loans.GetByID(ctx, id)
}

// Create opens a loan for b. It fails with ErrBookLoaned while the book has
// another active loan; the partial unique index in storage backs the rule,
// the pre-check only gives a friendly error.
func (s *Service) Create(ctx context.Context, customer, customerEmail string, b book.Book) (Loan, error) {
	active, err := s.loans.ExistsActiveByBookID(ctx, b.ID)
	if err != nil {
		return Loan{}, err
	}
	if active {
		return Loan{}, ErrBookLoaned
	}

	l := New(customer, customerEmail, b)
	if err := s.loans.Create(ctx, &l); err != nil {
		return Loan{}, err
	}
	return l, nil
}

// Update persists customer-detail changes already applied to l.
func (s *Service) Update(ctx context.Context, l *Loan) error {
	return s.loans.Update(ctx, l)
}

// Finalize marks l returned and persists it. Repeating it on an inactive
// loan is a no-op that still re-persists the record.
func (s *Service) Finalize(ctx context.Context, l *Loan) error {
	l.Finalize()
	return s.loans.Update(ctx, l)
}

// Delete removes a loan, failing with ErrActiveDeletion while it is active.
// The in-memory check answers early; the guarded delete in storage enforces
// the rule against stale reads.
func (s *Service) Delete(ctx context.Context, l Loan) error {
	if l.Active {
		return ErrActiveDeletion
	}
	return s.loans.Delete(ctx, l.ID)
}

// AllLate returns every active loan opened on or before today minus
// windowDays. Used by the overdue notifier.
func (s *Service) AllLate(ctx context.Context, windowDays int) ([]Loan, error) {
	return s.loans.AllLate(ctx, OverdueCutoff(windowDays, time.Now().UTC()))
}
