package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Book is a catalog record. ISBN is the natural key.
type Book struct {
	ID            uuid.UUID `json:"-"`
	ISBN          string    `json:"isbn"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	PublishedYear int       `json:"published_year"`
	Quantity      int       `json:"quantity"`
}

var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateBook = errors.New("book already exists")
	ErrPersistence   = errors.New("catalog write had no effect")
)

// Field selects the column a bulk delete matches on.
type Field string

const (
	FieldISBN   Field = "isbn"
	FieldAuthor Field = "author"
	FieldTitle  Field = "title"
)

// Repository is the port for the book collection.
type Repository interface {
	// Create inserts a book, ErrDuplicateBook when the ISBN is taken.
	Create(ctx context.Context, b Book) error
	// CreateMany inserts all books and returns the number inserted.
	CreateMany(ctx context.Context, books []Book) (int, error)
	ExistingISBNs(ctx context.Context, isbns []string) ([]string, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	// Update overwrites the mutable fields of the book with b.ISBN and reports modified rows.
	Update(ctx context.Context, b Book) (int64, error)
	DeleteBy(ctx context.Context, field Field, value string) (int64, error)
	List(ctx context.Context, limit, offset int) ([]Book, error)
	// Search matches query exactly against title, author or ISBN.
	Search(ctx context.Context, query string, limit, offset int) ([]Book, error)
}
