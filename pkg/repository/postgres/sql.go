package postgres

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	dialectPostgres = "postgres"

	tableBooks  = "books"
	tableLoans  = "issued_books"
	uniqueError = "23505"
)

var builder = goqu.Dialect(dialectPostgres)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueError
}

// query is a rendered statement with positional args.
type query struct {
	sql  string
	args []any
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func render(b sqlBuilder) (query, error) {
	sql, args, err := b.ToSQL()
	if err != nil {
		return query{}, err
	}
	return query{sql: sql, args: args}, nil
}
