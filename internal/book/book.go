// Package book implements the catalog side of the library: the Book entity,
// its search filter, the business rules around isbn uniqueness and deletion,
// and the Postgres-backed repository.
package book

import (
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9/exp"

	"libraryapi/internal/query"
)

// Business errors. The messages are surfaced verbatim to clients.
var (
	ErrNotFound      = errors.New("Livro não foi encontrado")
	ErrDuplicateISBN = errors.New("Isbn já foi cadastrado")
	ErrActiveLoan    = errors.New("Não é possivel deletar um livro com empréstimo ativo")
)

// Book is a catalog entry. The isbn is the external business key and is
// immutable after creation; ID is assigned by storage.
type Book struct {
	ID        int64
	Title     string
	ISBN      string
	Author    string
	Edition   int
	Publisher string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a Book ready for persistence, with created_at = updated_at = now.
func New(title, isbn, author string, edition int, publisher string) Book {
	now := time.Now().UTC()
	return Book{
		Title:     title,
		ISBN:      isbn,
		Author:    author,
		Edition:   edition,
		Publisher: publisher,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update mutates the editable fields and restamps updated_at. The isbn is
// deliberately not part of the signature.
func (b *Book) Update(title, author string, edition int, publisher string) {
	b.Title = title
	b.Author = author
	b.Edition = edition
	b.Publisher = publisher
	b.UpdatedAt = time.Now().UTC()
}

// Filter is a search template: zero-valued fields impose no constraint,
// string fields match by case-insensitive substring and Edition by exact
// equality. It is never persisted.
type Filter struct {
	Title     string
	ISBN      string
	Author    string
	Edition   *int
	Publisher string
}

// Predicate compiles the template into an AND of per-field predicates.
// An all-absent template yields nil, meaning every row matches.
func (f Filter) Predicate() exp.Expression {
	var exprs []exp.Expression
	if f.Title != "" {
		exprs = append(exprs, query.Contains("title", f.Title))
	}
	if f.ISBN != "" {
		exprs = append(exprs, query.Contains("isbn", f.ISBN))
	}
	if f.Author != "" {
		exprs = append(exprs, query.Contains("author", f.Author))
	}
	if f.Edition != nil {
		exprs = append(exprs, query.Eq("edition", *f.Edition))
	}
	if f.Publisher != "" {
		exprs = append(exprs, query.Contains("publisher", f.Publisher))
	}
	return query.And(exprs...)
}

// Sorts whitelists the sortable book fields.
var Sorts = query.SortSet{
	"id":         "id",
	"title":      "title",
	"isbn":       "isbn",
	"author":     "author",
	"edition":    "edition",
	"publisher":  "publisher",
	"created_at": "created_at",
	"updated_at": "updated_at",
}
