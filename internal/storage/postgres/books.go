package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookly/internal/models"
	"bookly/internal/storage"
)

const bookColumns = `uid, title, author, publisher, page_count, language,
	published_date, user_uid, created_at, updated_at`

func scanBook(row rowScanner) (models.Book, error) {
	var b models.Book

	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Publisher,
		&b.PageCount,
		&b.Language,
		&b.PublishedDate,
		&b.UserID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	return b, err
}

func (s *Storage) SaveBook(ctx context.Context, book models.Book) (models.Book, error) {
	const op = "storage.postgres.SaveBook"

	query := `
		INSERT INTO books (uid, title, author, publisher, page_count, language, published_date, user_uid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at;
	`

	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}

	err := s.conn(ctx).QueryRow(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Publisher,
		book.PageCount,
		book.Language,
		book.PublishedDate,
		book.UserID,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return book, nil
}

func (s *Storage) Book(ctx context.Context, id uuid.UUID) (models.Book, error) {
	const op = "storage.postgres.Book"

	query := `SELECT ` + bookColumns + ` FROM books WHERE uid = $1;`

	b, err := scanBook(s.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storage.ErrBookNotFound
		}

		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// Books lists all books, newest first.
func (s *Storage) Books(ctx context.Context) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC;`

	return s.listBooks(ctx, "storage.postgres.Books", query)
}

func (s *Storage) BooksByUser(ctx context.Context, userID uuid.UUID) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE user_uid = $1 ORDER BY created_at DESC;`

	return s.listBooks(ctx, "storage.postgres.BooksByUser", query, userID)
}

func (s *Storage) listBooks(ctx context.Context, op, query string, args ...any) ([]models.Book, error) {
	rows, err := s.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	books, err := pgx.CollectRows(rows, rowTo(scanBook))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return books, nil
}

func (s *Storage) UpdateBook(ctx context.Context, book models.Book) (models.Book, error) {
	const op = "storage.postgres.UpdateBook"

	query := `
		UPDATE books
		SET title = $2, author = $3, publisher = $4, page_count = $5, language = $6,
			published_date = $7, user_uid = $8, updated_at = NOW()
		WHERE uid = $1
		RETURNING created_at, updated_at;
	`

	err := s.conn(ctx).QueryRow(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Publisher,
		book.PageCount,
		book.Language,
		book.PublishedDate,
		book.UserID,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storage.ErrBookNotFound
		}

		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return book, nil
}

// DeleteBook removes the book. Tag links cascade and reviews are detached.
func (s *Storage) DeleteBook(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteBook"

	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM books WHERE uid = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrBookNotFound
	}

	return nil
}
