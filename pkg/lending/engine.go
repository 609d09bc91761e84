package lending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/library/pkg/catalog"
	"github.com/artem13815/library/pkg/lock"
)

const (
	DefaultLoanLimit      = 3
	DefaultRecommendLimit = 15
)

// Mode selects how Borrow and Return touch the store.
type Mode int

const (
	// ModeHardened uses conditional single-round-trip writes for quantity and loan state.
	ModeHardened Mode = iota
	// ModeLegacy reads, then blindly writes. Concurrent calls can oversell a copy
	// or open two loans for one (user, isbn) pair.
	ModeLegacy
)

// ParseMode maps "legacy" / "hardened". Unknown values yield ModeHardened.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "legacy") {
		return ModeLegacy
	}
	return ModeHardened
}

func (m Mode) String() string {
	if m == ModeLegacy {
		return "legacy"
	}
	return "hardened"
}

// LimitScope selects which loans count against the per-user cap.
type LimitScope int

const (
	// ScopeAllLoans counts every loan record the user ever had.
	ScopeAllLoans LimitScope = iota
	// ScopeOpenLoans counts only loans not yet returned.
	ScopeOpenLoans
)

func ParseLimitScope(s string) LimitScope {
	if strings.EqualFold(strings.TrimSpace(s), "open") {
		return ScopeOpenLoans
	}
	return ScopeAllLoans
}

// Engine runs borrow, return and recommendation against the shared store.
type Engine struct {
	books          Inventory
	loans          LoanRepository
	mode           Mode
	loanLimit      int
	scope          LimitScope
	recommendLimit int
	locker         lock.Locker
	log            *slog.Logger
	now            func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithMode(m Mode) Option { return func(e *Engine) { e.mode = m } }

func WithLoanLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.loanLimit = n
		}
	}
}

func WithLimitScope(s LimitScope) Option { return func(e *Engine) { e.scope = s } }

func WithRecommendLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.recommendLimit = n
		}
	}
}

// WithLocker serializes Borrow and Return per user and per book for the whole sequence.
func WithLocker(l lock.Locker) Option { return func(e *Engine) { e.locker = l } }

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(books Inventory, loans LoanRepository, opts ...Option) *Engine {
	e := &Engine{
		books:          books,
		loans:          loans,
		mode:           ModeHardened,
		loanLimit:      DefaultLoanLimit,
		scope:          ScopeAllLoans,
		recommendLimit: DefaultRecommendLimit,
		log:            slog.Default(),
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Mode() Mode { return e.mode }

// Borrow issues the book with isbn to the user.
func (e *Engine) Borrow(ctx context.Context, userEmail, isbn string) (IssuedBook, error) {
	unlock, err := e.acquire(ctx, userEmail, isbn)
	if err != nil {
		return IssuedBook{}, err
	}
	defer unlock()

	log := e.log.With(slog.String("user", userEmail), slog.String("isbn", isbn), slog.String("mode", e.mode.String()))

	count, err := e.loans.CountByUser(ctx, userEmail, e.scope == ScopeOpenLoans)
	if err != nil {
		return IssuedBook{}, persistence("count loans", err)
	}
	if count >= int64(e.loanLimit) {
		log.WarnContext(ctx, "borrowed books limit reached", slog.Int64("count", count))
		return IssuedBook{}, ErrLimitExceeded
	}

	book, err := e.books.GetByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			log.WarnContext(ctx, "book is not available")
			return IssuedBook{}, ErrNotFound
		}
		return IssuedBook{}, persistence("load book", err)
	}

	// the holder of the last copy gets AlreadyIssued rather than NotFound
	open, err := e.loans.FindOne(ctx, userEmail, isbn, false)
	switch {
	case err == nil:
		log.WarnContext(ctx, "book already issued", slog.Time("borrow_date", open.BorrowDate))
		return IssuedBook{}, ErrAlreadyIssued
	case !errors.Is(err, ErrLoanNotFound):
		return IssuedBook{}, persistence("find open loan", err)
	}

	if book.Quantity < 1 {
		log.WarnContext(ctx, "book is not available")
		return IssuedBook{}, ErrNotFound
	}

	loan := IssuedBook{
		ID:         uuid.New(),
		UserEmail:  userEmail,
		ISBN:       isbn,
		BorrowDate: e.now(),
	}
	if e.mode == ModeLegacy {
		loan, err = e.borrowLegacy(ctx, book, loan)
	} else {
		loan, err = e.borrowHardened(ctx, log, loan)
	}
	if err != nil {
		log.WarnContext(ctx, "failed to issue book", slog.String("error", err.Error()))
		return IssuedBook{}, err
	}
	log.InfoContext(ctx, "book issued")
	return loan, nil
}

func (e *Engine) borrowLegacy(ctx context.Context, book catalog.Book, loan IssuedBook) (IssuedBook, error) {
	n, err := e.books.SetQuantity(ctx, book.ISBN, book.Quantity-1)
	if err != nil {
		return IssuedBook{}, persistence("decrement quantity", err)
	}
	if n == 0 {
		return IssuedBook{}, ErrPersistence
	}
	created, err := e.loans.Insert(ctx, loan)
	if err != nil {
		if errors.Is(err, ErrAlreadyIssued) {
			return IssuedBook{}, ErrAlreadyIssued
		}
		return IssuedBook{}, persistence("insert loan", err)
	}
	return created, nil
}

func (e *Engine) borrowHardened(ctx context.Context, log *slog.Logger, loan IssuedBook) (IssuedBook, error) {
	n, err := e.books.DecrementAvailable(ctx, loan.ISBN)
	if err != nil {
		return IssuedBook{}, persistence("decrement quantity", err)
	}
	if n == 0 {
		// the last copy went to a concurrent borrower
		return IssuedBook{}, ErrNotFound
	}
	created, err := e.loans.InsertOpen(ctx, loan)
	if err == nil {
		return created, nil
	}
	if _, cerr := e.books.IncrementQuantity(context.WithoutCancel(ctx), loan.ISBN); cerr != nil {
		log.ErrorContext(ctx, "failed to restore quantity", slog.String("error", cerr.Error()))
	}
	if errors.Is(err, ErrAlreadyIssued) {
		return IssuedBook{}, ErrAlreadyIssued
	}
	return IssuedBook{}, persistence("insert loan", err)
}

// Return closes the user's loan of isbn and puts the copy back into stock.
func (e *Engine) Return(ctx context.Context, userEmail, isbn string) (string, error) {
	unlock, err := e.acquire(ctx, userEmail, isbn)
	if err != nil {
		return "", err
	}
	defer unlock()

	log := e.log.With(slog.String("user", userEmail), slog.String("isbn", isbn), slog.String("mode", e.mode.String()))

	book, err := e.books.GetByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			log.WarnContext(ctx, "book is not present")
			return "", ErrNotFound
		}
		return "", persistence("load book", err)
	}

	if e.mode == ModeLegacy {
		err = e.returnLegacy(ctx, userEmail, book)
	} else {
		err = e.returnHardened(ctx, userEmail, book)
	}
	if err != nil {
		log.WarnContext(ctx, "failed to return book", slog.String("error", err.Error()))
		return "", err
	}
	log.InfoContext(ctx, "book returned")
	return "Returned book id: " + book.ISBN, nil
}

func (e *Engine) returnLegacy(ctx context.Context, userEmail string, book catalog.Book) error {
	returned, err := e.hasReturnedLoan(ctx, userEmail, book.ISBN)
	if err != nil {
		return err
	}
	if returned {
		return ErrAlreadyReturned
	}
	n, err := e.loans.MarkReturned(ctx, userEmail, book.ISBN, e.now())
	if err != nil {
		return persistence("mark returned", err)
	}
	if n == 0 {
		return ErrPersistence
	}
	n, err = e.books.SetQuantity(ctx, book.ISBN, book.Quantity+1)
	if err != nil {
		return persistence("increment quantity", err)
	}
	if n == 0 {
		return ErrPersistence
	}
	return nil
}

func (e *Engine) returnHardened(ctx context.Context, userEmail string, book catalog.Book) error {
	n, err := e.loans.CloseOpen(ctx, userEmail, book.ISBN, e.now())
	if err != nil {
		return persistence("close loan", err)
	}
	if n == 0 {
		returned, err := e.hasReturnedLoan(ctx, userEmail, book.ISBN)
		if err != nil {
			return err
		}
		if returned {
			return ErrAlreadyReturned
		}
		return ErrPersistence
	}
	n, err = e.books.IncrementQuantity(ctx, book.ISBN)
	if err != nil {
		return persistence("increment quantity", err)
	}
	if n == 0 {
		return ErrPersistence
	}
	return nil
}

func (e *Engine) hasReturnedLoan(ctx context.Context, userEmail, isbn string) (bool, error) {
	_, err := e.loans.FindOne(ctx, userEmail, isbn, true)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrLoanNotFound):
		return false, nil
	default:
		return false, persistence("find returned loan", err)
	}
}

// Recommend suggests books by authors the user borrowed before.
func (e *Engine) Recommend(ctx context.Context, userEmail string) ([]catalog.Book, error) {
	history, err := e.loans.ListByUser(ctx, userEmail)
	if err != nil {
		return nil, persistence("list loans", err)
	}
	interests := make(map[string]struct{})
	for _, loan := range history {
		book, err := e.books.GetByISBN(ctx, loan.ISBN)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				// removed from the catalog since it was borrowed
				continue
			}
			return nil, persistence("load book", err)
		}
		interests[book.Author] = struct{}{}
	}
	if len(interests) == 0 {
		return []catalog.Book{}, nil
	}
	authors := make([]string, 0, len(interests))
	for a := range interests {
		authors = append(authors, a)
	}
	sort.Strings(authors)

	books, err := e.books.ListByAuthors(ctx, authors, e.recommendLimit)
	if err != nil {
		return nil, persistence("list books by authors", err)
	}
	e.log.InfoContext(ctx, "recommending books based on interests", slog.String("user", userEmail), slog.Int("authors", len(authors)), slog.Int("books", len(books)))
	return books, nil
}

// acquire takes the user lock, then the book lock. The fixed order keeps
// concurrent Borrow and Return calls from deadlocking.
func (e *Engine) acquire(ctx context.Context, userEmail, isbn string) (func(), error) {
	if e.locker == nil {
		return func() {}, nil
	}
	unlockUser, err := e.locker.Lock(ctx, "user:"+userEmail)
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	unlockBook, err := e.locker.Lock(ctx, "book:"+isbn)
	if err != nil {
		unlockUser()
		return nil, fmt.Errorf("lock book: %w", err)
	}
	return func() {
		unlockBook()
		unlockUser()
	}, nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
