package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"bookly/internal/models"
	"bookly/internal/permission"
	"bookly/internal/storage"
)

type TagStorage interface {
	Tag(ctx context.Context, id uuid.UUID) (models.Tag, error)
	TagByName(ctx context.Context, name string) (models.Tag, error)
	SaveTag(ctx context.Context, tag models.Tag) (models.Tag, error)
	BookTags(ctx context.Context, bookID uuid.UUID) ([]models.Tag, error)
	AddBookTag(ctx context.Context, bookID, tagID uuid.UUID) error
	RemoveBookTag(ctx context.Context, bookID, tagID uuid.UUID) error
}

type BookProvider interface {
	Book(ctx context.Context, id uuid.UUID) (models.Book, error)
}

// Service manages tags of books. Mutations are authorized against the
// owner of the book, not the tag.
type Service struct {
	log   *slog.Logger
	tags  TagStorage
	books BookProvider
	tx    storage.TxManager
}

func New(log *slog.Logger, tags TagStorage, books BookProvider, tx storage.TxManager) *Service {
	return &Service{
		log:   log,
		tags:  tags,
		books: books,
		tx:    tx,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Tag, error) {
	const op = "tags.Get"

	tag, err := s.tags.Tag(ctx, id)
	if err != nil {
		return models.Tag{}, fmt.Errorf("%s: %w", op, err)
	}

	return tag, nil
}

func (s *Service) OfBook(ctx context.Context, bookID uuid.UUID) ([]models.Tag, error) {
	const op = "tags.OfBook"

	if _, err := s.books.Book(ctx, bookID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tags, err := s.tags.BookTags(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tags, nil
}

// AddToBook attaches tags by name, creating the missing ones. Tags already on
// the book are left alone.
func (s *Service) AddToBook(ctx context.Context, actor models.User, bookID uuid.UUID, names []string) ([]models.Tag, error) {
	const op = "tags.AddToBook"

	var result []models.Tag

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.authorizeBook(ctx, actor, bookID); err != nil {
			return err
		}

		for _, name := range names {
			tag, err := s.tagByName(ctx, name)
			if err != nil {
				return err
			}

			if err := s.tags.AddBookTag(ctx, bookID, tag.ID); err != nil {
				return err
			}
		}

		var err error
		result, err = s.tags.BookTags(ctx, bookID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("tags added", slog.String("op", op), slog.String("book_uid", bookID.String()), slog.Int("count", len(names)))

	return result, nil
}

// Replace swaps the tag tagID on a book for the tag called name.
func (s *Service) Replace(ctx context.Context, actor models.User, bookID, tagID uuid.UUID, name string) ([]models.Tag, error) {
	const op = "tags.Replace"

	var result []models.Tag

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.tags.Tag(ctx, tagID); err != nil {
			return err
		}

		if _, err := s.books.Book(ctx, bookID); err != nil {
			return err
		}

		current, err := s.tags.BookTags(ctx, bookID)
		if err != nil {
			return err
		}

		if !slices.ContainsFunc(current, func(t models.Tag) bool { return t.ID == tagID }) {
			return storage.ErrTagNotFound
		}

		if err := s.authorizeBook(ctx, actor, bookID); err != nil {
			return err
		}

		if slices.ContainsFunc(current, func(t models.Tag) bool { return t.Name == name }) {
			result = current
			return nil
		}

		replacement, err := s.tagByName(ctx, name)
		if err != nil {
			return err
		}

		if err := s.tags.RemoveBookTag(ctx, bookID, tagID); err != nil {
			return err
		}

		if err := s.tags.AddBookTag(ctx, bookID, replacement.ID); err != nil {
			return err
		}

		result, err = s.tags.BookTags(ctx, bookID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *Service) RemoveFromBook(ctx context.Context, actor models.User, bookID, tagID uuid.UUID) error {
	const op = "tags.RemoveFromBook"

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.tags.Tag(ctx, tagID); err != nil {
			return err
		}

		if err := s.authorizeBook(ctx, actor, bookID); err != nil {
			return err
		}

		return s.tags.RemoveBookTag(ctx, bookID, tagID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) authorizeBook(ctx context.Context, actor models.User, bookID uuid.UUID) error {
	book, err := s.books.Book(ctx, bookID)
	if err != nil {
		return err
	}

	return permission.Authorize(book.UserID, actor)
}

func (s *Service) tagByName(ctx context.Context, name string) (models.Tag, error) {
	tag, err := s.tags.TagByName(ctx, name)
	if err == nil {
		return tag, nil
	}

	if !errors.Is(err, storage.ErrTagNotFound) {
		return models.Tag{}, err
	}

	return s.tags.SaveTag(ctx, models.Tag{Name: name})
}
