package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/library/pkg/lending"
)

var loanColumns = []any{"id", "user_email", "isbn", "borrow_date", "return_date", "returned"}

// LoanRepository implements lending.LoanRepository.
// The partial unique index uq_issued_books_open backs InsertOpen.
type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

func loanRecord(l lending.IssuedBook) goqu.Record {
	return goqu.Record{
		"id":          l.ID,
		"user_email":  l.UserEmail,
		"isbn":        l.ISBN,
		"borrow_date": l.BorrowDate,
		"returned":    false,
	}
}

func countLoansSQL(userEmail string, openOnly bool) (query, error) {
	where := goqu.Ex{"user_email": userEmail}
	if openOnly {
		where["returned"] = false
	}
	return render(builder.From(tableLoans).Select(goqu.COUNT("*")).Where(where).Prepared(true))
}

func insertOpenLoanSQL(l lending.IssuedBook) (query, error) {
	return render(builder.Insert(tableLoans).Rows(loanRecord(l)).OnConflict(goqu.DoNothing()).Prepared(true))
}

func markReturnedSQL(userEmail, isbn string, at time.Time) (query, error) {
	first := builder.From(tableLoans).
		Select("id").
		Where(goqu.Ex{"user_email": userEmail, "isbn": isbn}).
		Order(goqu.C("borrow_date").Asc()).
		Limit(1)
	return render(builder.Update(tableLoans).
		Set(goqu.Record{"returned": true, "return_date": at}).
		Where(goqu.C("id").Eq(first)).
		Prepared(true))
}

func closeOpenSQL(userEmail, isbn string, at time.Time) (query, error) {
	return render(builder.Update(tableLoans).
		Set(goqu.Record{"returned": true, "return_date": at}).
		Where(goqu.Ex{"user_email": userEmail, "isbn": isbn, "returned": false}).
		Prepared(true))
}

func (r *LoanRepository) CountByUser(ctx context.Context, userEmail string, openOnly bool) (int64, error) {
	q, err := countLoansSQL(userEmail, openOnly)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.pool.QueryRow(ctx, q.sql, q.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *LoanRepository) FindOne(ctx context.Context, userEmail, isbn string, returned bool) (lending.IssuedBook, error) {
	q, err := render(builder.From(tableLoans).
		Select(loanColumns...).
		Where(goqu.Ex{"user_email": userEmail, "isbn": isbn, "returned": returned}).
		Order(goqu.C("borrow_date").Asc()).
		Limit(1).
		Prepared(true))
	if err != nil {
		return lending.IssuedBook{}, err
	}
	l, err := scanLoan(r.pool.QueryRow(ctx, q.sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lending.IssuedBook{}, lending.ErrLoanNotFound
		}
		return lending.IssuedBook{}, err
	}
	return l, nil
}

// Insert is a plain insert; the open-loan index still rejects a second open loan.
func (r *LoanRepository) Insert(ctx context.Context, loan lending.IssuedBook) (lending.IssuedBook, error) {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	q, err := render(builder.Insert(tableLoans).Rows(loanRecord(loan)).Prepared(true))
	if err != nil {
		return lending.IssuedBook{}, err
	}
	if _, err := r.pool.Exec(ctx, q.sql, q.args...); err != nil {
		if isUniqueViolation(err) {
			return lending.IssuedBook{}, lending.ErrAlreadyIssued
		}
		return lending.IssuedBook{}, err
	}
	return opened(loan), nil
}

func (r *LoanRepository) InsertOpen(ctx context.Context, loan lending.IssuedBook) (lending.IssuedBook, error) {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	q, err := insertOpenLoanSQL(loan)
	if err != nil {
		return lending.IssuedBook{}, err
	}
	tag, err := r.pool.Exec(ctx, q.sql, q.args...)
	if err != nil {
		return lending.IssuedBook{}, err
	}
	if tag.RowsAffected() == 0 {
		return lending.IssuedBook{}, lending.ErrAlreadyIssued
	}
	return opened(loan), nil
}

func (r *LoanRepository) MarkReturned(ctx context.Context, userEmail, isbn string, at time.Time) (int64, error) {
	q, err := markReturnedSQL(userEmail, isbn, at)
	if err != nil {
		return 0, err
	}
	return r.exec(ctx, q)
}

func (r *LoanRepository) CloseOpen(ctx context.Context, userEmail, isbn string, at time.Time) (int64, error) {
	q, err := closeOpenSQL(userEmail, isbn, at)
	if err != nil {
		return 0, err
	}
	return r.exec(ctx, q)
}

func (r *LoanRepository) ListByUser(ctx context.Context, userEmail string) ([]lending.IssuedBook, error) {
	q, err := render(builder.From(tableLoans).
		Select(loanColumns...).
		Where(goqu.Ex{"user_email": userEmail}).
		Order(goqu.C("borrow_date").Asc()).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []lending.IssuedBook{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (r *LoanRepository) exec(ctx context.Context, q query) (int64, error) {
	tag, err := r.pool.Exec(ctx, q.sql, q.args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func opened(l lending.IssuedBook) lending.IssuedBook {
	l.Returned = false
	l.ReturnDate = nil
	return l
}

func scanLoan(row pgx.Row) (lending.IssuedBook, error) {
	var l lending.IssuedBook
	var returnDate *time.Time
	if err := row.Scan(&l.ID, &l.UserEmail, &l.ISBN, &l.BorrowDate, &returnDate, &l.Returned); err != nil {
		return lending.IssuedBook{}, err
	}
	l.BorrowDate = l.BorrowDate.UTC()
	if returnDate != nil {
		t := returnDate.UTC()
		l.ReturnDate = &t
	}
	return l, nil
}
