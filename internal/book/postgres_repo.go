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

// PostgresRepo stores one row per book. Unlike the document backends,
// writes run inside a transaction and roll back completely on failure,
// and the next id is derived from max(id) in the same transaction that
// inserts the row.
type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const bookColumns = `id, title, author, publication_year, genre, pages, availability, cover_url, description, rating`

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.PublicationYear, &b.Genre, &b.Pages,
		&b.Availability, &b.CoverURL, &b.Description, &b.Rating,
	)
	return b, err
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Author != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(author) = LOWER($%d)", argn))
		args = append(args, q.Author)
		argn++
	}

	if q.Genre != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(genre) = LOWER($%d)", argn))
		args = append(args, q.Genre)
		argn++
	}

	if q.Availability != "" {
		clauses = append(clauses, fmt.Sprintf("availability = $%d", argn))
		args = append(args, string(q.Availability))
		argn++
	}

	sql := fmt.Sprintf(`SELECT %s FROM books WHERE %s ORDER BY id`, bookColumns, strings.Join(clauses, " AND "))
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d", argn)
		args = append(args, q.Limit)
		argn++
	}
	sql += fmt.Sprintf(" OFFSET $%d", argn)
	args = append(args, q.Offset)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int) (Book, error) {
	sql := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1`, bookColumns)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback(timeoutCtx)

	var id int
	if err := tx.QueryRow(timeoutCtx, `SELECT COALESCE(MAX(id), 0) + 1 FROM books`).Scan(&id); err != nil {
		return fmt.Errorf("next id: %w", err)
	}

	const sql = `
		INSERT INTO books (id, title, author, publication_year, genre, pages, availability, cover_url, description, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.Exec(timeoutCtx, sql,
		id, b.Title, b.Author, b.PublicationYear, b.Genre, b.Pages,
		string(b.Availability), b.CoverURL, b.Description, b.Rating,
	); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}

	if err := tx.Commit(timeoutCtx); err != nil {
		return fmt.Errorf("commit create: %w", err)
	}
	b.ID = id
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, id int, p Patch) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return Book{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(timeoutCtx)

	sql := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1 FOR UPDATE`, bookColumns)
	current, err := scanBook(tx.QueryRow(timeoutCtx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("load book %d: %w", id, err)
	}

	p.Apply(&current)

	const updateSQL = `
		UPDATE books SET
			title = $1,
			author = $2,
			publication_year = $3,
			genre = $4,
			pages = $5,
			availability = $6,
			cover_url = $7,
			description = $8,
			rating = $9
		WHERE id = $10`
	if _, err := tx.Exec(timeoutCtx, updateSQL,
		current.Title, current.Author, current.PublicationYear, current.Genre, current.Pages,
		string(current.Availability), current.CoverURL, current.Description, current.Rating, id,
	); err != nil {
		return Book{}, fmt.Errorf("update book %d: %w", id, err)
	}

	if err := tx.Commit(timeoutCtx); err != nil {
		return Book{}, fmt.Errorf("commit update: %w", err)
	}
	return current, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete book %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) NextID(ctx context.Context) (int, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id int
	if err := r.db.QueryRow(timeoutCtx, `SELECT COALESCE(MAX(id), 0) + 1 FROM books`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return id, nil
}

var _ Repository = (*PostgresRepo)(nil)
