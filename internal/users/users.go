package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bookly/internal/auth"
	"bookly/internal/models"
	"bookly/internal/permission"
	"bookly/internal/storage"
)

type UserStorage interface {
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UsersExcludingRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type SubmissionProvider interface {
	BooksByUser(ctx context.Context, userID uuid.UUID) ([]models.Book, error)
	ReviewsByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error)
}

type Service struct {
	log         *slog.Logger
	users       UserStorage
	submissions SubmissionProvider
	tx          storage.TxManager
}

func New(log *slog.Logger, users UserStorage, submissions SubmissionProvider, tx storage.TxManager) *Service {
	return &Service{
		log:         log,
		users:       users,
		submissions: submissions,
		tx:          tx,
	}
}

// List returns every non-admin account. Only admins may list.
func (s *Service) List(ctx context.Context, actor models.User) ([]models.User, error) {
	const op = "users.List"

	if err := permission.RequireAdmin(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	users, err := s.users.UsersExcludingRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// Profile returns the public profile of a non-admin user.
func (s *Service) Profile(ctx context.Context, username string) (models.UserProfile, error) {
	const op = "users.Profile"

	user, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	if user.IsAdmin() {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	books, err := s.submissions.BooksByUser(ctx, user.ID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := s.submissions.ReviewsByUser(ctx, user.ID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.UserProfile{
		User:    user,
		Books:   books,
		Reviews: reviews,
	}, nil
}

// Update changes the profile of targetID. Users may change themselves, admins anyone.
func (s *Service) Update(ctx context.Context, actor models.User, targetID uuid.UUID, upd models.UserUpdate) (models.User, error) {
	const op = "users.Update"

	if err := permission.Authorize(&targetID, actor); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	var updated models.User

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		target, err := s.users.UserByID(ctx, targetID)
		if err != nil {
			return err
		}

		if upd.Email != nil && *upd.Email != target.Email {
			if err := s.ensureFree(ctx, s.users.UserByEmail, *upd.Email, auth.ErrEmailExists); err != nil {
				return err
			}
			target.Email = *upd.Email
		}

		if upd.Username != nil && *upd.Username != target.Username {
			if err := s.ensureFree(ctx, s.users.UserByUsername, *upd.Username, auth.ErrUsernameExists); err != nil {
				return err
			}
			target.Username = *upd.Username
		}

		if upd.FirstName != nil {
			target.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			target.LastName = *upd.LastName
		}

		updated, err = s.users.UpdateUser(ctx, target)
		return err
	})
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user updated",
		slog.String("op", op),
		slog.String("uid", targetID.String()),
		slog.String("actor_uid", actor.ID.String()),
	)

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor models.User, targetID uuid.UUID) error {
	const op = "users.Delete"

	if err := permission.Authorize(&targetID, actor); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.users.DeleteUser(ctx, targetID)
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deleted",
		slog.String("op", op),
		slog.String("uid", targetID.String()),
		slog.String("actor_uid", actor.ID.String()),
	)

	return nil
}

func (s *Service) ensureFree(
	ctx context.Context,
	lookup func(ctx context.Context, key string) (models.User, error),
	key string,
	taken error,
) error {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, storage.ErrUserNotFound):
		return nil
	default:
		return err
	}
}
