// Package memory holds in-process implementations of the store ports.
// Each method runs under one mutex, so every call is atomic on its own while
// multi-call sequences interleave exactly like round trips to a shared database.
package memory

import (
	"sync"

	"github.com/artem13815/library/pkg/auth"
	"github.com/artem13815/library/pkg/catalog"
	"github.com/artem13815/library/pkg/lending"
)

// DB is the shared state behind the repositories.
type DB struct {
	mu    sync.RWMutex
	users map[string]auth.User
	books []catalog.Book
	loans []lending.IssuedBook
}

func NewDB() *DB {
	return &DB{users: make(map[string]auth.User)}
}

func (db *DB) bookIndex(isbn string) int {
	for i := range db.books {
		if db.books[i].ISBN == isbn {
			return i
		}
	}
	return -1
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
