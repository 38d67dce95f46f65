package loan

import (
	"context"
	"time"

	"libraryapi/internal/book"
	"libraryapi/internal/page"
	"libraryapi/internal/query"
)

// Repository defines the contract for loan storage. Reads return loans with
// the associated book populated.
type Repository interface {
	List(ctx context.Context, f Filter, req query.PageRequest) (page.Page[Loan], error)
	ListByBook(ctx context.Context, bookID int64, req query.PageRequest) (page.Page[Loan], error)
	GetByID(ctx context.Context, id int64) (Loan, error)
	ExistsActiveByBookID(ctx context.Context, bookID int64) (bool, error)
	AllLate(ctx context.Context, cutoff time.Time) ([]Loan, error)
	Create(ctx context.Context, l *Loan) error
	Update(ctx context.Context, l *Loan) error
	Delete(ctx context.Context, id int64) error
}

// BookCatalog is the catalog view the lending handlers need: resolving the
// target book of a loan request and checking a book exists before listing
// its loans.
type BookCatalog interface {
	GetByID(ctx context.Context, id int64) (book.Book, error)
	GetByISBN(ctx context.Context, isbn string) (book.Book, error)
}
