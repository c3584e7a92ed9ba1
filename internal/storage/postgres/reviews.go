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

const reviewColumns = `uid, rating, review_text, user_uid, book_uid, created_at, updated_at`

func scanReview(row rowScanner) (models.Review, error) {
	var r models.Review

	err := row.Scan(
		&r.ID,
		&r.Rating,
		&r.Text,
		&r.UserID,
		&r.BookID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)

	return r, err
}

func (s *Storage) SaveReview(ctx context.Context, review models.Review) (models.Review, error) {
	const op = "storage.postgres.SaveReview"

	query := `
		INSERT INTO reviews (uid, rating, review_text, user_uid, book_uid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at;
	`

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}

	err := s.conn(ctx).QueryRow(ctx, query,
		review.ID,
		review.Rating,
		review.Text,
		review.UserID,
		review.BookID,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return models.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	return review, nil
}

func (s *Storage) Review(ctx context.Context, id uuid.UUID) (models.Review, error) {
	const op = "storage.postgres.Review"

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE uid = $1;`

	r, err := scanReview(s.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Review{}, storage.ErrReviewNotFound
		}

		return models.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	return r, nil
}

func (s *Storage) Reviews(ctx context.Context) ([]models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews ORDER BY created_at DESC;`

	return s.listReviews(ctx, "storage.postgres.Reviews", query)
}

func (s *Storage) ReviewsByBook(ctx context.Context, bookID uuid.UUID) ([]models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE book_uid = $1 ORDER BY created_at DESC;`

	return s.listReviews(ctx, "storage.postgres.ReviewsByBook", query, bookID)
}

func (s *Storage) ReviewsByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE user_uid = $1 ORDER BY created_at DESC;`

	return s.listReviews(ctx, "storage.postgres.ReviewsByUser", query, userID)
}

func (s *Storage) listReviews(ctx context.Context, op, query string, args ...any) ([]models.Review, error) {
	rows, err := s.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := pgx.CollectRows(rows, rowTo(scanReview))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reviews, nil
}

func (s *Storage) UpdateReview(ctx context.Context, review models.Review) (models.Review, error) {
	const op = "storage.postgres.UpdateReview"

	query := `
		UPDATE reviews
		SET rating = $2, review_text = $3, user_uid = $4, book_uid = $5, updated_at = NOW()
		WHERE uid = $1
		RETURNING created_at, updated_at;
	`

	err := s.conn(ctx).QueryRow(ctx, query,
		review.ID,
		review.Rating,
		review.Text,
		review.UserID,
		review.BookID,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Review{}, storage.ErrReviewNotFound
		}

		return models.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	return review, nil
}

func (s *Storage) DeleteReview(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteReview"

	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM reviews WHERE uid = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrReviewNotFound
	}

	return nil
}
