package books

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

type BookStorage interface {
	SaveBook(ctx context.Context, book models.Book) (models.Book, error)
	Book(ctx context.Context, id uuid.UUID) (models.Book, error)
	Books(ctx context.Context) ([]models.Book, error)
	BooksByUser(ctx context.Context, userID uuid.UUID) ([]models.Book, error)
	UpdateBook(ctx context.Context, book models.Book) (models.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

type DetailProvider interface {
	ReviewsByBook(ctx context.Context, bookID uuid.UUID) ([]models.Review, error)
	BookTags(ctx context.Context, bookID uuid.UUID) ([]models.Tag, error)
}

type Service struct {
	log     *slog.Logger
	books   BookStorage
	details DetailProvider
	tx      storage.TxManager
}

func New(log *slog.Logger, books BookStorage, details DetailProvider, tx storage.TxManager) *Service {
	return &Service{
		log:     log,
		books:   books,
		details: details,
		tx:      tx,
	}
}

// Create stores a book owned by actor.
func (s *Service) Create(ctx context.Context, actor models.User, book models.Book) (models.Book, error) {
	const op = "books.Create"

	book.ID = uuid.Nil
	book.UserID = &actor.ID

	var created models.Book

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.books.SaveBook(ctx, book)
		return err
	})
	if err != nil {
		s.log.Error("failed to save book", slog.String("op", op), sl.Err(err))
		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (s *Service) List(ctx context.Context) ([]models.Book, error) {
	const op = "books.List"

	books, err := s.books.Books(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return books, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Book, error) {
	const op = "books.ListByUser"

	books, err := s.books.BooksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return books, nil
}

// Detail returns the book with its reviews and tags.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (models.BookDetail, error) {
	const op = "books.Detail"

	book, err := s.books.Book(ctx, id)
	if err != nil {
		return models.BookDetail{}, fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := s.details.ReviewsByBook(ctx, id)
	if err != nil {
		return models.BookDetail{}, fmt.Errorf("%s: %w", op, err)
	}

	tags, err := s.details.BookTags(ctx, id)
	if err != nil {
		return models.BookDetail{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.BookDetail{
		Book:    book,
		Reviews: reviews,
		Tags:    tags,
	}, nil
}

func (s *Service) Update(ctx context.Context, actor models.User, id uuid.UUID, upd models.BookUpdate) (models.Book, error) {
	const op = "books.Update"

	var updated models.Book

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		book, err := s.books.Book(ctx, id)
		if err != nil {
			return err
		}

		if err := permission.Authorize(book.UserID, actor); err != nil {
			return err
		}

		apply(&book, upd)

		updated, err = s.books.UpdateBook(ctx, book)
		return err
	})
	if err != nil {
		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("book updated", slog.String("op", op), slog.String("book_uid", id.String()))

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor models.User, id uuid.UUID) error {
	const op = "books.Delete"

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		book, err := s.books.Book(ctx, id)
		if err != nil {
			return err
		}

		if err := permission.Authorize(book.UserID, actor); err != nil {
			return err
		}

		return s.books.DeleteBook(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("book deleted", slog.String("op", op), slog.String("book_uid", id.String()))

	return nil
}

func apply(book *models.Book, upd models.BookUpdate) {
	if upd.Title != nil {
		book.Title = *upd.Title
	}
	if upd.Author != nil {
		book.Author = *upd.Author
	}
	if upd.Publisher != nil {
		book.Publisher = *upd.Publisher
	}
	if upd.PageCount != nil {
		book.PageCount = *upd.PageCount
	}
	if upd.Language != nil {
		book.Language = *upd.Language
	}
}
