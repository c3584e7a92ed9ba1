package reviews

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bookly/internal/lib/logger/sl"
	"bookly/internal/models"
	"bookly/internal/permission"
	"bookly/internal/storage"
)

type ReviewStorage interface {
	SaveReview(ctx context.Context, review models.Review) (models.Review, error)
	Review(ctx context.Context, id uuid.UUID) (models.Review, error)
	Reviews(ctx context.Context) ([]models.Review, error)
	UpdateReview(ctx context.Context, review models.Review) (models.Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID) error
}

type BookProvider interface {
	Book(ctx context.Context, id uuid.UUID) (models.Book, error)
}

type Service struct {
	log     *slog.Logger
	reviews ReviewStorage
	books   BookProvider
	tx      storage.TxManager
}

func New(log *slog.Logger, reviews ReviewStorage, books BookProvider, tx storage.TxManager) *Service {
	return &Service{
		log:     log,
		reviews: reviews,
		books:   books,
		tx:      tx,
	}
}

// Add attaches a review by actor to an existing book.
func (s *Service) Add(ctx context.Context, actor models.User, bookID uuid.UUID, rating int, text string) (models.Review, error) {
	const op = "reviews.Add"

	var created models.Review

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.books.Book(ctx, bookID); err != nil {
			return err
		}

		var err error
		created, err = s.reviews.SaveReview(ctx, models.Review{
			Rating: rating,
			Text:   text,
			UserID: &actor.ID,
			BookID: &bookID,
		})
		return err
	})
	if err != nil {
		s.log.Warn("failed to add review", slog.String("op", op), sl.Err(err))
		return models.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (s *Service) List(ctx context.Context) ([]models.Review, error) {
	const op = "reviews.List"

	reviews, err := s.reviews.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reviews, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Review, error) {
	const op = "reviews.Get"

	review, err := s.reviews.Review(ctx, id)
	if err != nil {
		return models.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	return review, nil
}

func (s *Service) Update(ctx context.Context, actor models.User, id uuid.UUID, upd models.ReviewUpdate) (models.Review, error) {
	const op = "reviews.Update"

	var updated models.Review

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		review, err := s.reviews.Review(ctx, id)
		if err != nil {
			return err
		}

		if err := permission.Authorize(review.UserID, actor); err != nil {
			return err
		}

		if upd.Rating != nil {
			review.Rating = *upd.Rating
		}
		if upd.Text != nil {
			review.Text = *upd.Text
		}

		updated, err = s.reviews.UpdateReview(ctx, review)
		return err
	})
	if err != nil {
		return models.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor models.User, id uuid.UUID) error {
	const op = "reviews.Delete"

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		review, err := s.reviews.Review(ctx, id)
		if err != nil {
			return err
		}

		if err := permission.Authorize(review.UserID, actor); err != nil {
			return err
		}

		return s.reviews.DeleteReview(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
