package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/library/pkg/lending"
)

// LoanRepository implements lending.LoanRepository.
// Insert does not enforce the single-open-loan rule; InsertOpen does.
type LoanRepository struct{ db *DB }

func NewLoanRepository(db *DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) CountByUser(ctx context.Context, userEmail string, openOnly bool) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, l := range r.db.loans {
		if l.UserEmail == userEmail && (!openOnly || !l.Returned) {
			n++
		}
	}
	return n, nil
}

func (r *LoanRepository) FindOne(ctx context.Context, userEmail, isbn string, returned bool) (lending.IssuedBook, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, l := range r.db.loans {
		if l.UserEmail == userEmail && l.ISBN == isbn && l.Returned == returned {
			return clone(l), nil
		}
	}
	return lending.IssuedBook{}, lending.ErrLoanNotFound
}

func (r *LoanRepository) Insert(ctx context.Context, loan lending.IssuedBook) (lending.IssuedBook, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.insertLocked(loan), nil
}

func (r *LoanRepository) InsertOpen(ctx context.Context, loan lending.IssuedBook) (lending.IssuedBook, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.loans {
		if l.UserEmail == loan.UserEmail && l.ISBN == loan.ISBN && !l.Returned {
			return lending.IssuedBook{}, lending.ErrAlreadyIssued
		}
	}
	return r.insertLocked(loan), nil
}

func (r *LoanRepository) insertLocked(loan lending.IssuedBook) lending.IssuedBook {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	loan.Returned = false
	loan.ReturnDate = nil
	r.db.loans = append(r.db.loans, loan)
	return loan
}

func (r *LoanRepository) MarkReturned(ctx context.Context, userEmail, isbn string, at time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.loans {
		l := &r.db.loans[i]
		if l.UserEmail == userEmail && l.ISBN == isbn {
			l.Returned = true
			l.ReturnDate = &at
			return 1, nil
		}
	}
	return 0, nil
}

func (r *LoanRepository) CloseOpen(ctx context.Context, userEmail, isbn string, at time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.loans {
		l := &r.db.loans[i]
		if l.UserEmail == userEmail && l.ISBN == isbn && !l.Returned {
			l.Returned = true
			l.ReturnDate = &at
			return 1, nil
		}
	}
	return 0, nil
}

func (r *LoanRepository) ListByUser(ctx context.Context, userEmail string) ([]lending.IssuedBook, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []lending.IssuedBook{}
	for _, l := range r.db.loans {
		if l.UserEmail == userEmail {
			out = append(out, clone(l))
		}
	}
	return out, nil
}

func clone(l lending.IssuedBook) lending.IssuedBook {
	if l.ReturnDate != nil {
		t := *l.ReturnDate
		l.ReturnDate = &t
	}
	return l
}
