package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultListPageSize   = 5
	DefaultSearchPageSize = 10
	MaxPageSize           = 100
)

// UseCase covers the admin and browsing operations on the catalog.
type UseCase interface {
	Create(ctx context.Context, b Book) (Book, error)
	AddMany(ctx context.Context, books []Book) (int, error)
	Update(ctx context.Context, b Book) error
	Delete(ctx context.Context, c DeleteCriteria) (int64, error)
	List(ctx context.Context, page, pageSize int) ([]Book, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]Book, error)
}

// DeleteCriteria picks the first non-empty of ISBN, Author, Title.
type DeleteCriteria struct {
	ISBN   string
	Author string
	Title  string
}

// ErrValidation is returned for malformed input.
type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }

type service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) UseCase {
	if log == nil {
		log = slog.Default()
	}
	return &service{repo: repo, log: log}
}

func (s *service) Create(ctx context.Context, b Book) (Book, error) {
	b, err := prepare(b)
	if err != nil {
		return Book{}, err
	}
	if _, err := s.repo.GetByISBN(ctx, b.ISBN); err == nil {
		return Book{}, ErrDuplicateBook
	} else if !errors.Is(err, ErrNotFound) {
		return Book{}, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return Book{}, err
	}
	s.log.InfoContext(ctx, "book added", slog.String("isbn", b.ISBN))
	return b, nil
}

func (s *service) AddMany(ctx context.Context, books []Book) (int, error) {
	if len(books) == 0 {
		return 0, ErrValidation("at least one book is required")
	}
	isbns := make([]string, 0, len(books))
	for i := range books {
		b, err := prepare(books[i])
		if err != nil {
			return 0, err
		}
		books[i] = b
		isbns = append(isbns, b.ISBN)
	}
	existing, err := s.repo.ExistingISBNs(ctx, isbns)
	if err != nil {
		return 0, err
	}
	skip := make(map[string]struct{}, len(existing))
	for _, isbn := range existing {
		skip[isbn] = struct{}{}
	}
	toAdd := make([]Book, 0, len(books))
	for _, b := range books {
		if _, ok := skip[b.ISBN]; ok {
			continue
		}
		// duplicates inside the request collapse to the first occurrence
		skip[b.ISBN] = struct{}{}
		toAdd = append(toAdd, b)
	}
	if len(toAdd) == 0 {
		return 0, ErrDuplicateBook
	}
	n, err := s.repo.CreateMany(ctx, toAdd)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrPersistence
	}
	s.log.InfoContext(ctx, "books added", slog.Int("count", n))
	return n, nil
}

func (s *service) Update(ctx context.Context, b Book) error {
	b, err := prepare(b)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetByISBN(ctx, b.ISBN); err != nil {
		return err
	}
	n, err := s.repo.Update(ctx, b)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPersistence
	}
	s.log.InfoContext(ctx, "book updated", slog.String("isbn", b.ISBN))
	return nil
}

func (s *service) Delete(ctx context.Context, c DeleteCriteria) (int64, error) {
	var (
		field Field
		value string
	)
	switch {
	case strings.TrimSpace(c.ISBN) != "":
		field, value = FieldISBN, strings.TrimSpace(c.ISBN)
	case strings.TrimSpace(c.Author) != "":
		field, value = FieldAuthor, strings.TrimSpace(c.Author)
	case strings.TrimSpace(c.Title) != "":
		field, value = FieldTitle, strings.TrimSpace(c.Title)
	default:
		return 0, ErrValidation("isbn, author or title is required")
	}
	n, err := s.repo.DeleteBy(ctx, field, value)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, ErrNotFound
	}
	s.log.InfoContext(ctx, "books deleted", slog.String("field", string(field)), slog.Int64("count", n))
	return n, nil
}

func (s *service) List(ctx context.Context, page, pageSize int) ([]Book, error) {
	limit, offset := paginate(page, pageSize, DefaultListPageSize)
	return s.repo.List(ctx, limit, offset)
}

func (s *service) Search(ctx context.Context, query string, page, pageSize int) ([]Book, error) {
	limit, offset := paginate(page, pageSize, DefaultSearchPageSize)
	return s.repo.Search(ctx, strings.TrimSpace(query), limit, offset)
}

func prepare(b Book) (Book, error) {
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	if b.ISBN == "" {
		return Book{}, ErrValidation("isbn is required")
	}
	if b.Quantity < 0 {
		return Book{}, ErrValidation("quantity must not be negative")
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return b, nil
}

// paginate turns a 1-based page into limit/offset.
func paginate(page, pageSize, def int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = def
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return pageSize, (page - 1) * pageSize
}
