package lending_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/library/pkg/lending"
	"github.com/artem13815/library/pkg/lock"
	"github.com/artem13815/library/pkg/repository/memory"
)

// barrierLoans holds every open-loan lookup until n callers have made one,
// so n borrows all pass the "already issued" check before any of them writes.
type barrierLoans struct {
	*memory.LoanRepository
	wg *sync.WaitGroup
}

func newBarrierLoans(inner *memory.LoanRepository, n int) *barrierLoans {
	wg := &sync.WaitGroup{}
	wg.Add(n)
	return &barrierLoans{LoanRepository: inner, wg: wg}
}

func (b *barrierLoans) FindOne(ctx context.Context, userEmail, isbn string, returned bool) (lending.IssuedBook, error) {
	loan, err := b.LoanRepository.FindOne(ctx, userEmail, isbn, returned)
	if !returned {
		b.wg.Done()
		b.wg.Wait()
	}
	return loan, err
}

func borrowConcurrently(e *lending.Engine, users []string, isbns []string) []error {
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, errs[i] = e.Borrow(ctx, users[i], isbns[i])
		}(i)
	}
	wg.Wait()
	return errs
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func countOK(errs []error) int {
	n := 0
	for _, err := range errs {
		if err == nil {
			n++
		}
	}
	return n
}

// The read-then-write sequence lets two borrows of one pair interleave.
func TestLegacy_RaceOpensTwoLoansAndLosesAnUpdate(t *testing.T) {
	f := newFixture(t, book("111", "A", 2))
	loans := newBarrierLoans(f.loans, 2)
	e := lending.NewEngine(f.books, loans, lending.WithMode(lending.ModeLegacy))

	errs := borrowConcurrently(e, repeat(alice, 2), repeat("111", 2))

	assert.Equal(t, 2, countOK(errs))
	assert.Equal(t, 2, f.openLoans(t, alice, "111"))
	// both writers stored 2-1
	assert.Equal(t, 1, f.quantity(t, "111"))
}

func TestHardened_SameInterleavingKeepsOneOpenLoan(t *testing.T) {
	f := newFixture(t, book("111", "A", 2))
	loans := newBarrierLoans(f.loans, 2)
	e := lending.NewEngine(f.books, loans, lending.WithMode(lending.ModeHardened))

	errs := borrowConcurrently(e, repeat(alice, 2), repeat("111", 2))

	assert.Equal(t, 1, countOK(errs))
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, lending.ErrAlreadyIssued)
		}
	}
	assert.Equal(t, 1, f.openLoans(t, alice, "111"))
	assert.Equal(t, 1, f.quantity(t, "111"))
}

// Two readers both see the last copy in stock and both get it.
func TestLegacy_LastCopyOversoldToTwoReaders(t *testing.T) {
	f := newFixture(t, book("111", "A", 1))
	loans := newBarrierLoans(f.loans, 2)
	e := lending.NewEngine(f.books, loans, lending.WithMode(lending.ModeLegacy))

	errs := borrowConcurrently(e, []string{alice, bob}, repeat("111", 2))

	assert.Equal(t, 2, countOK(errs))
	assert.Equal(t, 1, f.openLoans(t, alice, "111"))
	assert.Equal(t, 1, f.openLoans(t, bob, "111"))
	assert.Equal(t, 0, f.quantity(t, "111"))
}

func TestHardened_LastCopyGoesToOneReader(t *testing.T) {
	f := newFixture(t, book("111", "A", 1))
	loans := newBarrierLoans(f.loans, 2)
	e := lending.NewEngine(f.books, loans, lending.WithMode(lending.ModeHardened))

	errs := borrowConcurrently(e, []string{alice, bob}, repeat("111", 2))

	require.Equal(t, 1, countOK(errs))
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, lending.ErrNotFound)
		}
	}
	assert.Equal(t, 1, f.openLoans(t, alice, "111")+f.openLoans(t, bob, "111"))
	assert.Equal(t, 0, f.quantity(t, "111"))
}

func TestHardened_LastCopiesNeverOversold(t *testing.T) {
	const stock, borrowers = 5, 40
	f := newFixture(t, book("111", "A", stock))
	e := f.engine(lending.WithMode(lending.ModeHardened))

	users := make([]string, borrowers)
	for i := range users {
		users[i] = fmt.Sprintf("reader-%02d@example.com", i)
	}
	errs := borrowConcurrently(e, users, repeat("111", borrowers))

	assert.Equal(t, stock, countOK(errs))
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, lending.ErrNotFound)
		}
	}
	assert.Equal(t, 0, f.quantity(t, "111"))
}

func TestHardened_SingleActiveLoanPerPair(t *testing.T) {
	const attempts = 25
	f := newFixture(t, book("111", "A", attempts))
	e := f.engine(lending.WithMode(lending.ModeHardened))

	errs := borrowConcurrently(e, repeat(alice, attempts), repeat("111", attempts))

	assert.Equal(t, 1, countOK(errs))
	assert.Equal(t, 1, f.openLoans(t, alice, "111"))
	assert.Equal(t, attempts-1, f.quantity(t, "111"))
}

func TestHardened_QuantityStaysInBounds(t *testing.T) {
	const stock = 3
	ctx := context.Background()
	f := newFixture(t, book("111", "A", stock))
	e := f.engine(lending.WithMode(lending.ModeHardened), lending.WithLimitScope(lending.ScopeOpenLoans))

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("reader-%d@example.com", i%4)
			for j := 0; j < 20; j++ {
				if _, err := e.Borrow(ctx, user, "111"); err == nil || errors.Is(err, lending.ErrAlreadyIssued) {
					_, _ = e.Return(ctx, user, "111")
				}
				q := f.quantity(t, "111")
				assert.GreaterOrEqual(t, q, 0)
				assert.LessOrEqual(t, q, stock)
			}
		}(i)
	}
	wg.Wait()

	// every loan is closed again
	for i := 0; i < 4; i++ {
		user := fmt.Sprintf("reader-%d@example.com", i)
		assert.Equal(t, 0, f.openLoans(t, user, "111"))
	}
	assert.Equal(t, stock, f.quantity(t, "111"))
}

func TestLocker_EnforcesLimitUnderConcurrency(t *testing.T) {
	f := newFixture(t,
		book("1", "A", 1), book("2", "A", 1), book("3", "A", 1),
		book("4", "A", 1), book("5", "A", 1), book("6", "A", 1),
	)
	e := f.engine(lending.WithLocker(lock.NewLocal()))

	errs := borrowConcurrently(e, repeat(alice, 6), []string{"1", "2", "3", "4", "5", "6"})

	require.Equal(t, lending.DefaultLoanLimit, countOK(errs))
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, lending.ErrLimitExceeded)
		}
	}
}
