package memory

import (
	"context"

	"github.com/artem13815/library/pkg/catalog"
)

// BookRepository implements catalog.Repository and lending.Inventory.
type BookRepository struct{ db *DB }

func NewBookRepository(db *DB) *BookRepository { return &BookRepository{db: db} }

func (r *BookRepository) Create(ctx context.Context, b catalog.Book) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.bookIndex(b.ISBN) >= 0 {
		return catalog.ErrDuplicateBook
	}
	r.db.books = append(r.db.books, b)
	return nil
}

// CreateMany is all-or-nothing: a duplicate ISBN rejects the whole batch.
func (r *BookRepository) CreateMany(ctx context.Context, books []catalog.Book) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := make(map[string]struct{}, len(books))
	for _, b := range books {
		if _, dup := seen[b.ISBN]; dup || r.db.bookIndex(b.ISBN) >= 0 {
			return 0, catalog.ErrDuplicateBook
		}
		seen[b.ISBN] = struct{}{}
	}
	r.db.books = append(r.db.books, books...)
	return len(books), nil
}

func (r *BookRepository) ExistingISBNs(ctx context.Context, isbns []string) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []string
	for _, isbn := range isbns {
		if r.db.bookIndex(isbn) >= 0 {
			out = append(out, isbn)
		}
	}
	return out, nil
}

func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (catalog.Book, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	i := r.db.bookIndex(isbn)
	if i < 0 {
		return catalog.Book{}, catalog.ErrNotFound
	}
	return r.db.books[i], nil
}

func (r *BookRepository) Update(ctx context.Context, b catalog.Book) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i := r.db.bookIndex(b.ISBN)
	if i < 0 {
		return 0, nil
	}
	cur := &r.db.books[i]
	cur.Title = b.Title
	cur.Author = b.Author
	cur.PublishedYear = b.PublishedYear
	cur.Quantity = b.Quantity
	return 1, nil
}

func (r *BookRepository) DeleteBy(ctx context.Context, field catalog.Field, value string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.books[:0]
	var deleted int64
	for _, b := range r.db.books {
		// ISBN is unique, so only author and title can match more than one book
		if fieldValue(b, field) == value {
			deleted++
			continue
		}
		kept = append(kept, b)
	}
	r.db.books = kept
	return deleted, nil
}

func (r *BookRepository) List(ctx context.Context, limit, offset int) ([]catalog.Book, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return page(r.db.books, limit, offset), nil
}

func (r *BookRepository) Search(ctx context.Context, query string, limit, offset int) ([]catalog.Book, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var matched []catalog.Book
	for _, b := range r.db.books {
		if b.Title == query || b.Author == query || b.ISBN == query {
			matched = append(matched, b)
		}
	}
	return page(matched, limit, offset), nil
}

func (r *BookRepository) SetQuantity(ctx context.Context, isbn string, quantity int) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i := r.db.bookIndex(isbn)
	if i < 0 {
		return 0, nil
	}
	r.db.books[i].Quantity = quantity
	return 1, nil
}

func (r *BookRepository) DecrementAvailable(ctx context.Context, isbn string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i := r.db.bookIndex(isbn)
	if i < 0 || r.db.books[i].Quantity < 1 {
		return 0, nil
	}
	r.db.books[i].Quantity--
	return 1, nil
}

func (r *BookRepository) IncrementQuantity(ctx context.Context, isbn string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i := r.db.bookIndex(isbn)
	if i < 0 {
		return 0, nil
	}
	r.db.books[i].Quantity++
	return 1, nil
}

// ListByAuthors returns nothing for an empty author list.
func (r *BookRepository) ListByAuthors(ctx context.Context, authors []string, limit int) ([]catalog.Book, error) {
	if len(authors) == 0 {
		return []catalog.Book{}, nil
	}
	set := make(map[string]struct{}, len(authors))
	for _, a := range authors {
		set[a] = struct{}{}
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []catalog.Book{}
	for _, b := range r.db.books {
		if limit > 0 && len(out) == limit {
			break
		}
		if _, ok := set[b.Author]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func fieldValue(b catalog.Book, f catalog.Field) string {
	switch f {
	case catalog.FieldISBN:
		return b.ISBN
	case catalog.FieldAuthor:
		return b.Author
	case catalog.FieldTitle:
		return b.Title
	}
	return ""
}
