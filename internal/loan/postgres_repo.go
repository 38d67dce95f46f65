package loan

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

// loanColumns is the join projection shared by every read. Order must match
// scanLoan.
var loanColumns = []any{
	goqu.I("loans.id"), goqu.I("loans.customer"), goqu.I("loans.customer_email"),
	goqu.I("loans.book_id"), goqu.I("loans.loan_date"), goqu.I("loans.active"),
	goqu.I("loans.created_at"), goqu.I("loans.updated_at"),
	goqu.I("books.id"), goqu.I("books.title"), goqu.I("books.isbn"),
	goqu.I("books.author"), goqu.I("books.edition"), goqu.I("books.publisher"),
	goqu.I("books.created_at"), goqu.I("books.updated_at"),
}

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

func joined() *goqu.SelectDataset {
	return dialect.From("loans").
		Join(goqu.T("books"), goqu.On(goqu.I("books.id").Eq(goqu.I("loans.book_id"))))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(s scanner) (Loan, error) {
	var l Loan
	err := s.Scan(
		&l.ID, &l.Customer, &l.CustomerEmail,
		&l.BookID, &l.LoanDate, &l.Active,
		&l.CreatedAt, &l.UpdatedAt,
		&l.Book.ID, &l.Book.Title, &l.Book.ISBN,
		&l.Book.Author, &l.Book.Edition, &l.Book.Publisher,
		&l.Book.CreatedAt, &l.Book.UpdatedAt,
	)
	return l, err
}

func (r *PostgresRepo) List(ctx context.Context, f Filter, req query.PageRequest) (page.Page[Loan], error) {
	return r.listWhere(ctx, f.Predicate(), req)
}

func (r *PostgresRepo) ListByBook(ctx context.Context, bookID int64, req query.PageRequest) (page.Page[Loan], error) {
	return r.listWhere(ctx, goqu.I("loans.book_id").Eq(bookID), req)
}

func (r *PostgresRepo) listWhere(ctx context.Context, pred goqu.Expression, req query.PageRequest) (page.Page[Loan], error) {
	countDS := joined().Select(goqu.COUNT(goqu.Star()))
	if pred != nil {
		countDS = countDS.Where(pred)
	}
	countSQL, countArgs, err := countDS.Prepared(true).ToSQL()
	if err != nil {
		return page.Page[Loan]{}, err
	}

	var total int64
	countCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(countCtx, countSQL, countArgs...).Scan(&total); err != nil {
		return page.Page[Loan]{}, err
	}

	ord, err := req.Order(Sorts)
	if err != nil {
		return page.Page[Loan]{}, err
	}
	limit, offset := req.LimitOffset()

	dataDS := joined().Select(loanColumns...)
	if pred != nil {
		dataDS = dataDS.Where(pred)
	}
	dataSQL, dataArgs, err := dataDS.Order(ord).Limit(limit).Offset(offset).Prepared(true).ToSQL()
	if err != nil {
		return page.Page[Loan]{}, err
	}

	dataCtx, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(dataCtx, dataSQL, dataArgs...)
	if err != nil {
		return page.Page[Loan]{}, err
	}
	defer rows.Close()

	var items []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return page.Page[Loan]{}, err
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return page.Page[Loan]{}, err
	}

	return page.New(req.Page, req.PerPage, total, items), nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Loan, error) {
	getSQL, args, err := joined().Select(loanColumns...).
		Where(goqu.I("loans.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return Loan{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	l, err := scanLoan(r.db.QueryRow(timeoutCtx, getSQL, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrNotFound
		}
		return Loan{}, err
	}
	return l, nil
}

func (r *PostgresRepo) ExistsActiveByBookID(ctx context.Context, bookID int64) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM loans WHERE book_id = $1 AND active)`
	var exists bool
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql, bookID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) AllLate(ctx context.Context, cutoff time.Time) ([]Loan, error) {
	lateSQL, args, err := joined().Select(loanColumns...).
		Where(goqu.I("loans.active").IsTrue(), goqu.I("loans.loan_date").Lte(cutoff)).
		Order(goqu.I("loans.loan_date").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, lateSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var late []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		late = append(late, l)
	}
	return late, rows.Err()
}

// Create inserts the loan and assigns its storage identity. The partial
// unique index on (book_id) WHERE active maps a concurrent second loan to
// ErrBookLoaned instead of silently violating the invariant.
func (r *PostgresRepo) Create(ctx context.Context, l *Loan) error {
	insertSQL, args, err := dialect.Insert("loans").Rows(goqu.Record{
		"customer":       l.Customer,
		"customer_email": l.CustomerEmail,
		"book_id":        l.BookID,
		"loan_date":      l.LoanDate,
		"active":         l.Active,
		"created_at":     l.CreatedAt,
		"updated_at":     l.UpdatedAt,
	}).Returning("id").Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, insertSQL, args...).Scan(&l.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrBookLoaned
		}
		return err
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, l *Loan) error {
	updateSQL, args, err := dialect.Update("loans").Set(goqu.Record{
		"customer":       l.Customer,
		"customer_email": l.CustomerEmail,
		"active":         l.Active,
		"updated_at":     l.UpdatedAt,
	}).Where(goqu.C("id").Eq(l.ID)).Prepared(true).ToSQL()
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

// Delete removes an inactive loan. The statement skips active rows, so a
// caller holding a stale inactive snapshot cannot remove a loan that was
// re-read as active by someone else. Zero rows means the loan is active or
// missing; a follow-up existence probe tells them apart.
func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	const sql = `DELETE FROM loans WHERE id = $1 AND NOT active`
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
	const sql = `SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1)`
	var exists bool
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql, id).Scan(&exists)
	return exists, err
}

// deleteSkippedError maps a guarded delete that removed nothing: the loan is
// still there because it is active, or it never existed.
func deleteSkippedError(stillExists bool) error {
	if stillExists {
		return ErrActiveDeletion
	}
	return ErrNotFound
}
