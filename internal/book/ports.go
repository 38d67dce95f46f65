package book

import (
	"context"

	"libraryapi/internal/page"
	"libraryapi/internal/query"
)

// Repository defines the contract for book storage.
type Repository interface {
	List(ctx context.Context, f Filter, req query.PageRequest) (page.Page[Book], error)
	GetByID(ctx context.Context, id int64) (Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id int64) error
}

// ActiveLoanChecker reports whether a book currently has an active loan.
// Satisfied by the loan repository; kept here so the catalog does not
// depend on the lending package.
type ActiveLoanChecker interface {
	ExistsActiveByBookID(ctx context.Context, bookID int64) (bool, error)
}
