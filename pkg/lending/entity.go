package lending

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/library/pkg/catalog"
)

// IssuedBook is a loan record for one borrow-to-return lifecycle of a (user, book) pair.
// UserEmail and ISBN reference the other collections by value.
type IssuedBook struct {
	ID         uuid.UUID  `json:"-"`
	UserEmail  string     `json:"user_id"`
	ISBN       string     `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Returned   bool       `json:"returned_book"`
}

// Failures surfaced to the route layer. None are retried internally.
var (
	ErrNotFound        = errors.New("book is not available")
	ErrLimitExceeded   = errors.New("maximum issue limit reached")
	ErrAlreadyIssued   = errors.New("book already issued to user")
	ErrAlreadyReturned = errors.New("book already returned")
	ErrPersistence     = errors.New("loan write had no effect")
)

// ErrLoanNotFound is reported by LoanRepository.FindOne.
var ErrLoanNotFound = errors.New("loan not found")

// UseCase is what the route layer needs from the Engine.
type UseCase interface {
	Borrow(ctx context.Context, userEmail, isbn string) (IssuedBook, error)
	Return(ctx context.Context, userEmail, isbn string) (string, error)
	Recommend(ctx context.Context, userEmail string) ([]catalog.Book, error)
}

// Inventory is the slice of the book collection the engine needs.
// Every method is a single store round trip.
type Inventory interface {
	// GetByISBN reports catalog.ErrNotFound for unknown books.
	GetByISBN(ctx context.Context, isbn string) (catalog.Book, error)
	SetQuantity(ctx context.Context, isbn string, quantity int) (int64, error)
	// DecrementAvailable atomically decrements quantity only while it is positive.
	DecrementAvailable(ctx context.Context, isbn string) (int64, error)
	// IncrementQuantity atomically increments quantity.
	IncrementQuantity(ctx context.Context, isbn string) (int64, error)
	ListByAuthors(ctx context.Context, authors []string, limit int) ([]catalog.Book, error)
}

// LoanRepository is the port for the issued-book collection.
type LoanRepository interface {
	CountByUser(ctx context.Context, userEmail string, openOnly bool) (int64, error)
	// FindOne returns a loan for the pair with the given returned flag or ErrLoanNotFound.
	FindOne(ctx context.Context, userEmail, isbn string, returned bool) (IssuedBook, error)
	Insert(ctx context.Context, loan IssuedBook) (IssuedBook, error)
	// InsertOpen atomically inserts loan unless an open loan exists for the pair,
	// in which case it returns ErrAlreadyIssued.
	InsertOpen(ctx context.Context, loan IssuedBook) (IssuedBook, error)
	// MarkReturned flags the first loan of the pair as returned, whatever its state.
	MarkReturned(ctx context.Context, userEmail, isbn string, at time.Time) (int64, error)
	// CloseOpen atomically flags the open loan of the pair as returned.
	CloseOpen(ctx context.Context, userEmail, isbn string, at time.Time) (int64, error)
	ListByUser(ctx context.Context, userEmail string) ([]IssuedBook, error)
}
