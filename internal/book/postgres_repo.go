package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `SELECT id, title, author, genre, year, rating FROM books`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

var _ Repository = (*PostgresRepo)(nil)

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// withConn runs fn on a connection acquired for this call only. The
// connection goes back to the pool on every return path.
func (r *PostgresRepo) withConn(ctx context.Context, fn func(context.Context, *pgxpool.Conn) error) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	conn, err := r.db.Acquire(timeoutCtx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return fn(timeoutCtx, conn)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Book, error) {
	var out []Book
	err := r.withConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		var err error
		out, err = queryBooks(ctx, conn, selectColumns+` ORDER BY id`)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Book, error) {
	var b Book
	err := r.withConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		row := conn.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
		return scanBook(row, &b)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, in Input) (Book, error) {
	const query = `
		INSERT INTO books (title, author, genre, year, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.withConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, query, in.Title, in.Author, in.Genre, in.Year, in.Rating).Scan(&id)
	})
	if err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	return FromInput(id, in), nil
}

// Update overwrites every mutable column of the row.
func (r *PostgresRepo) Update(ctx context.Context, id int64, in Input) (Book, error) {
	const query = `
		UPDATE books
		SET title = $1, author = $2, genre = $3, year = $4, rating = $5
		WHERE id = $6
		RETURNING id, title, author, genre, year, rating`

	var b Book
	err := r.withConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		row := conn.QueryRow(ctx, query, in.Title, in.Author, in.Genre, in.Year, in.Rating, id)
		return scanBook(row, &b)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("update book %d: %w", id, err)
	}
	return b, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	var affected int64
	err := r.withConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Search matches term as a literal, case-insensitive substring of title or
// author.
func (r *PostgresRepo) Search(ctx context.Context, term string) ([]Book, error) {
	query := selectColumns + ` WHERE title ILIKE $1 ESCAPE '\' OR author ILIKE $1 ESCAPE '\' ORDER BY id`
	pattern := "%" + likeEscaper.Replace(term) + "%"

	var out []Book
	err := r.withConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		var err error
		out, err = queryBooks(ctx, conn, query, pattern)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Filter(ctx context.Context, years YearRange) ([]Book, error) {
	query, args := filterQuery(years)

	var out []Book
	err := r.withConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		var err error
		out, err = queryBooks(ctx, conn, query, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("filter books: %w", err)
	}
	return out, nil
}

func filterQuery(years YearRange) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if years.Min != nil {
		clauses = append(clauses, fmt.Sprintf("year >= $%d", argn))
		args = append(args, *years.Min)
		argn++
	}

	if years.Max != nil {
		clauses = append(clauses, fmt.Sprintf("year <= $%d", argn))
		args = append(args, *years.Max)
	}

	return selectColumns + " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY id", args
}

func queryBooks(ctx context.Context, conn *pgxpool.Conn, query string, args ...any) ([]Book, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBook(row pgx.Row, b *Book) error {
	return row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Year, &b.Rating)
}
