package book

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"libraryapi/internal/page"
	"libraryapi/internal/query"
)

var dialect = goqu.Dialect("postgres")

const uniqueViolation = "23505"

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) List(ctx context.Context, f Filter, req query.PageRequest) (page.Page[Book], error) {
	pred := f.Predicate()

	countDS := dialect.From("books").Select(goqu.COUNT(goqu.Star()))
	if pred != nil {
		countDS = countDS.Where(pred)
	}
	countSQL, countArgs, err := countDS.Prepared(true).ToSQL()
	if err != nil {
		return page.Page[Book]{}, err
	}

	var total int64
	countCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(countCtx, countSQL, countArgs...).Scan(&total); err != nil {
		return page.Page[Book]{}, err
	}

	ord, err := req.Order(Sorts)
	if err != nil {
		return page.Page[Book]{}, err
	}
	limit, offset := req.LimitOffset()

	dataDS := dialect.From("books").
		Select("id", "title", "isbn", "author", "edition", "publisher", "created_at", "updated_at")
	if pred != nil {
		dataDS = dataDS.Where(pred)
	}
	dataSQL, dataArgs, err := dataDS.Order(ord).Limit(limit).Offset(offset).Prepared(true).ToSQL()
	if err != nil {
		return page.Page[Book]{}, err
	}

	dataCtx, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(dataCtx, dataSQL, dataArgs...)
	if err != nil {
		return page.Page[Book]{}, err
	}
	defer rows.Close()

	var items []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.ISBN, &b.Author, &b.Edition, &b.Publisher, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return page.Page[Book]{}, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return page.Page[Book]{}, err
	}

	return page.New(req.Page, req.PerPage, total, items), nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	const sql = `
		SELECT id, title, isbn, author, edition, publisher, created_at, updated_at
		FROM books
		WHERE id = $1`
	return r.get(ctx, sql, id)
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	const sql = `
		SELECT id, title, isbn, author, edition, publisher, created_at, updated_at
		FROM books
		WHERE isbn = $1`
	return r.get(ctx, sql, isbn)
}

func (r *PostgresRepo) get(ctx context.Context, sql string, arg any) (Book, error) {
	var b Book
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql, arg).
		Scan(&b.ID, &b.Title, &b.ISBN, &b.Author, &b.Edition, &b.Publisher, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM books WHERE isbn = $1)`
	var exists bool
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql, isbn).Scan(&exists)
	return exists, err
}

// Create inserts the book and assigns its storage identity. A unique
// constraint violation on the isbn maps to ErrDuplicateISBN, so a race
// between two concurrent creates degrades to the same business error.
func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	insertSQL, args, err := dialect.Insert("books").Rows(goqu.Record{
		"title":      b.Title,
		"isbn":       b.ISBN,
		"author":     b.Author,
		"edition":    b.Edition,
		"publisher":  b.Publisher,
		"created_at": b.CreatedAt,
		"updated_at": b.UpdatedAt,
	}).Returning("id").Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, insertSQL, args...).Scan(&b.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateISBN
		}
		return err
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	updateSQL, args, err := dialect.Update("books").Set(goqu.Record{
		"title":      b.Title,
		"author":     b.Author,
		"edition":    b.Edition,
		"publisher":  b.Publisher,
		"updated_at": b.UpdatedAt,
	}).Where(goqu.C("id").Eq(b.ID)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, updateSQL, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the book; inactive loans referencing it are removed by the
// foreign-key cascade. The statement itself refuses to remove a book with an
// active loan, so a loan created between the service pre-check and this call
// cannot be cascaded away. Zero rows means either an active loan or a
// missing book; a follow-up existence probe tells them apart.
func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	const sql = `
		DELETE FROM books
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM loans WHERE book_id = $1 AND active)`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		exists, err := r.existsByID(ctx, id)
		if err != nil {
			return err
		}
		return deleteSkippedError(exists)
	}
	return nil
}

func (r *PostgresRepo) existsByID(ctx context.Context, id int64) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`
	var exists bool
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql, id).Scan(&exists)
	return exists, err
}

// deleteSkippedError maps a guarded delete that removed nothing: the book is
// still there because of an active loan, or it never existed.
func deleteSkippedError(stillExists bool) error {
	if stillExists {
		return ErrActiveLoan
	}
	return ErrNotFound
}
