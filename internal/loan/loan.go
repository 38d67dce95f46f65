// Package loan implements the lending workflow: the Loan entity and its
// lifecycle, the single-active-loan-per-book rule, overdue detection and the
// Postgres-backed repository.
package loan

import (
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9/exp"

	"libraryapi/internal/book"
	"libraryapi/internal/query"
)

// Business errors. The messages are surfaced verbatim to clients.
var (
	ErrNotFound       = errors.New("Empréstimo não foi encontrado")
	ErrBookLoaned     = errors.New("Livro já foi emprestado")
	ErrActiveDeletion = errors.New("Não é possivel deletar um empréstimo ativo")
)

// Loan records one lending of a book to a customer. Active means the book is
// still checked out; finalizing flips it to false. The referenced book is
// loaded by join for the external projection.
type Loan struct {
	ID            int64
	Customer      string
	CustomerEmail string
	BookID        int64
	Book          book.Book
	LoanDate      time.Time
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New opens a loan for b: active, dated today, created_at = updated_at = now.
func New(customer, customerEmail string, b book.Book) Loan {
	now := time.Now().UTC()
	return Loan{
		Customer:      customer,
		CustomerEmail: customerEmail,
		BookID:        b.ID,
		Book:          b,
		LoanDate:      midnight(now),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Update mutates the customer details and restamps updated_at. It never
// touches Active.
func (l *Loan) Update(customer, customerEmail string) {
	l.Customer = customer
	l.CustomerEmail = customerEmail
	l.UpdatedAt = time.Now().UTC()
}

// Finalize marks the loan returned. Finalizing an already-inactive loan is a
// no-op, so a repeated call neither errors nor restamps updated_at.
func (l *Loan) Finalize() {
	if !l.Active {
		return
	}
	l.Active = false
	l.UpdatedAt = time.Now().UTC()
}

// OverdueCutoff returns the latest loan_date still considered on time:
// a loan is overdue when it is active and was opened on or before the
// midnight of today minus windowDays.
func OverdueCutoff(windowDays int, today time.Time) time.Time {
	return midnight(today).AddDate(0, 0, -windowDays)
}

// Filter is the loan search template. BookISBN matches against the isbn of
// the associated book. Zero-valued fields impose no constraint.
type Filter struct {
	Customer      string
	CustomerEmail string
	BookISBN      string
}

// Predicate compiles the template into an AND of case-insensitive substring
// predicates, nil when all fields are absent.
func (f Filter) Predicate() exp.Expression {
	var exprs []exp.Expression
	if f.Customer != "" {
		exprs = append(exprs, query.Contains("loans.customer", f.Customer))
	}
	if f.CustomerEmail != "" {
		exprs = append(exprs, query.Contains("loans.customer_email", f.CustomerEmail))
	}
	if f.BookISBN != "" {
		exprs = append(exprs, query.Contains("books.isbn", f.BookISBN))
	}
	return query.And(exprs...)
}

// Sorts whitelists the sortable loan fields.
var Sorts = query.SortSet{
	"id":             "loans.id",
	"customer":       "loans.customer",
	"customer_email": "loans.customer_email",
	"loan_date":      "loans.loan_date",
	"active":         "loans.active",
	"created_at":     "loans.created_at",
	"updated_at":     "loans.updated_at",
}
