package postgres

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/library/pkg/catalog"
)

var bookColumns = []any{"id", "isbn", "title", "author", "published_year", "quantity"}

// BookRepository implements catalog.Repository and lending.Inventory.
// Quantity changes used by the hardened lending flow are single conditional UPDATEs.
type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func bookRecord(b catalog.Book) goqu.Record {
	return goqu.Record{
		"id":             b.ID,
		"isbn":           b.ISBN,
		"title":          b.Title,
		"author":         b.Author,
		"published_year": b.PublishedYear,
		"quantity":       b.Quantity,
	}
}

func insertBooksSQL(books []catalog.Book) (query, error) {
	rows := make([]any, 0, len(books))
	for _, b := range books {
		rows = append(rows, bookRecord(b))
	}
	return render(builder.Insert(tableBooks).Rows(rows...).Prepared(true))
}

func selectBooks() *goqu.SelectDataset {
	return builder.From(tableBooks).Select(bookColumns...).Order(goqu.C("seq").Asc())
}

func searchBooksSQL(q string, limit, offset int) (query, error) {
	ds := selectBooks().
		Where(goqu.Or(
			goqu.Ex{"title": q},
			goqu.Ex{"author": q},
			goqu.Ex{"isbn": q},
		)).
		Limit(uint(limit)).
		Offset(uint(offset))
	return render(ds.Prepared(true))
}

func booksByAuthorsSQL(authors []string, limit int) (query, error) {
	ds := selectBooks().Where(goqu.C("author").In(authors))
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return render(ds.Prepared(true))
}

func decrementAvailableSQL(isbn string) (query, error) {
	return render(builder.Update(tableBooks).
		Set(goqu.Record{"quantity": goqu.L("quantity - 1")}).
		Where(goqu.Ex{"isbn": isbn}, goqu.C("quantity").Gt(0)).
		Prepared(true))
}

func incrementQuantitySQL(isbn string) (query, error) {
	return render(builder.Update(tableBooks).
		Set(goqu.Record{"quantity": goqu.L("quantity + 1")}).
		Where(goqu.Ex{"isbn": isbn}).
		Prepared(true))
}

func (r *BookRepository) Create(ctx context.Context, b catalog.Book) error {
	_, err := r.CreateMany(ctx, []catalog.Book{b})
	return err
}

func (r *BookRepository) CreateMany(ctx context.Context, books []catalog.Book) (int, error) {
	if len(books) == 0 {
		return 0, nil
	}
	q, err := insertBooksSQL(books)
	if err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, q.sql, q.args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, catalog.ErrDuplicateBook
		}
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *BookRepository) ExistingISBNs(ctx context.Context, isbns []string) ([]string, error) {
	if len(isbns) == 0 {
		return nil, nil
	}
	q, err := render(builder.From(tableBooks).Select("isbn").Where(goqu.C("isbn").In(isbns)).Prepared(true))
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (catalog.Book, error) {
	q, err := render(selectBooks().Where(goqu.Ex{"isbn": isbn}).Limit(1).Prepared(true))
	if err != nil {
		return catalog.Book{}, err
	}
	b, err := scanBook(r.pool.QueryRow(ctx, q.sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Book{}, catalog.ErrNotFound
		}
		return catalog.Book{}, err
	}
	return b, nil
}

func (r *BookRepository) Update(ctx context.Context, b catalog.Book) (int64, error) {
	return r.exec(ctx, builder.Update(tableBooks).
		Set(goqu.Record{
			"title":          b.Title,
			"author":         b.Author,
			"published_year": b.PublishedYear,
			"quantity":       b.Quantity,
		}).
		Where(goqu.Ex{"isbn": b.ISBN}).
		Prepared(true))
}

func (r *BookRepository) DeleteBy(ctx context.Context, field catalog.Field, value string) (int64, error) {
	switch field {
	case catalog.FieldISBN, catalog.FieldAuthor, catalog.FieldTitle:
	default:
		return 0, errors.New("unsupported delete field: " + string(field))
	}
	return r.exec(ctx, builder.Delete(tableBooks).Where(goqu.Ex{string(field): value}).Prepared(true))
}

func (r *BookRepository) List(ctx context.Context, limit, offset int) ([]catalog.Book, error) {
	q, err := render(selectBooks().Limit(uint(limit)).Offset(uint(offset)).Prepared(true))
	if err != nil {
		return nil, err
	}
	return r.queryBooks(ctx, q)
}

func (r *BookRepository) Search(ctx context.Context, query string, limit, offset int) ([]catalog.Book, error) {
	q, err := searchBooksSQL(query, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.queryBooks(ctx, q)
}

func (r *BookRepository) SetQuantity(ctx context.Context, isbn string, quantity int) (int64, error) {
	return r.exec(ctx, builder.Update(tableBooks).
		Set(goqu.Record{"quantity": quantity}).
		Where(goqu.Ex{"isbn": isbn}).
		Prepared(true))
}

func (r *BookRepository) DecrementAvailable(ctx context.Context, isbn string) (int64, error) {
	q, err := decrementAvailableSQL(isbn)
	if err != nil {
		return 0, err
	}
	return r.execQuery(ctx, q)
}

func (r *BookRepository) IncrementQuantity(ctx context.Context, isbn string) (int64, error) {
	q, err := incrementQuantitySQL(isbn)
	if err != nil {
		return 0, err
	}
	return r.execQuery(ctx, q)
}

// ListByAuthors never queries with an empty IN list.
func (r *BookRepository) ListByAuthors(ctx context.Context, authors []string, limit int) ([]catalog.Book, error) {
	if len(authors) == 0 {
		return []catalog.Book{}, nil
	}
	q, err := booksByAuthorsSQL(authors, limit)
	if err != nil {
		return nil, err
	}
	return r.queryBooks(ctx, q)
}

func (r *BookRepository) exec(ctx context.Context, b sqlBuilder) (int64, error) {
	q, err := render(b)
	if err != nil {
		return 0, err
	}
	return r.execQuery(ctx, q)
}

func (r *BookRepository) execQuery(ctx context.Context, q query) (int64, error) {
	tag, err := r.pool.Exec(ctx, q.sql, q.args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *BookRepository) queryBooks(ctx context.Context, q query) ([]catalog.Book, error) {
	rows, err := r.pool.Query(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []catalog.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func scanBook(row pgx.Row) (catalog.Book, error) {
	var b catalog.Book
	err := row.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.PublishedYear, &b.Quantity)
	return b, err
}
