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

func scanTag(row rowScanner) (models.Tag, error) {
	var t models.Tag

	err := row.Scan(&t.ID, &t.Name, &t.CreatedAt)

	return t, err
}

func (s *Storage) Tag(ctx context.Context, id uuid.UUID) (models.Tag, error) {
	return s.tagBy(ctx, "storage.postgres.Tag", "uid", id)
}

func (s *Storage) TagByName(ctx context.Context, name string) (models.Tag, error) {
	return s.tagBy(ctx, "storage.postgres.TagByName", "name", name)
}

func (s *Storage) tagBy(ctx context.Context, op, column string, value any) (models.Tag, error) {
	query := `SELECT uid, name, created_at FROM tags WHERE ` + column + ` = $1;`

	t, err := scanTag(s.conn(ctx).QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tag{}, storage.ErrTagNotFound
		}

		return models.Tag{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

func (s *Storage) SaveTag(ctx context.Context, tag models.Tag) (models.Tag, error) {
	const op = "storage.postgres.SaveTag"

	query := `INSERT INTO tags (uid, name) VALUES ($1, $2) RETURNING created_at;`

	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}

	if err := s.conn(ctx).QueryRow(ctx, query, tag.ID, tag.Name).Scan(&tag.CreatedAt); err != nil {
		return models.Tag{}, fmt.Errorf("%s: %w", op, err)
	}

	return tag, nil
}

// BookTags lists the tags attached to a book ordered by name.
func (s *Storage) BookTags(ctx context.Context, bookID uuid.UUID) ([]models.Tag, error) {
	const op = "storage.postgres.BookTags"

	query := `
		SELECT t.uid, t.name, t.created_at
		FROM tags t
		JOIN book_tags bt ON bt.tag_uid = t.uid
		WHERE bt.book_uid = $1
		ORDER BY t.name;
	`

	rows, err := s.conn(ctx).Query(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tags, err := pgx.CollectRows(rows, rowTo(scanTag))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tags, nil
}

// AddBookTag links a tag to a book. Linking twice is a no-op.
func (s *Storage) AddBookTag(ctx context.Context, bookID, tagID uuid.UUID) error {
	const op = "storage.postgres.AddBookTag"

	query := `INSERT INTO book_tags (book_uid, tag_uid) VALUES ($1, $2) ON CONFLICT DO NOTHING;`

	if _, err := s.conn(ctx).Exec(ctx, query, bookID, tagID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) RemoveBookTag(ctx context.Context, bookID, tagID uuid.UUID) error {
	const op = "storage.postgres.RemoveBookTag"

	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM book_tags WHERE book_uid = $1 AND tag_uid = $2`, bookID, tagID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrTagNotFound
	}

	return nil
}
