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

const userColumns = `uid, username, email, password_hash, first_name, last_name,
	role, is_active, is_verified, created_at, updated_at`

func scanUser(row rowScanner) (models.User, error) {
	var u models.User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PassHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsActive,
		&u.IsVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (s *Storage) SaveUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (uid, username, email, password_hash, first_name, last_name, role, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at;
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := s.conn(ctx).QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PassHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.IsActive,
		user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrUserExists
		}

		return models.User{}, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.userBy(ctx, "storage.postgres.UserByID", "uid", id)
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.userBy(ctx, "storage.postgres.UserByEmail", "email", email)
}

func (s *Storage) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.userBy(ctx, "storage.postgres.UserByUsername", "username", username)
}

// userBy looks a user up by a unique column. column is never user input.
func (s *Storage) userBy(ctx context.Context, op, column string, value any) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1;`

	u, err := scanUser(s.conn(ctx).QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (s *Storage) UsersExcludingRole(ctx context.Context, role models.Role) ([]models.User, error) {
	const op = "storage.postgres.UsersExcludingRole"

	query := `SELECT ` + userColumns + ` FROM users WHERE role <> $1 ORDER BY created_at;`

	rows, err := s.conn(ctx).Query(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	users, err := pgx.CollectRows(rows, rowTo(scanUser))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.postgres.UpdateUser"

	query := `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, first_name = $5, last_name = $6,
			role = $7, is_active = $8, is_verified = $9, updated_at = NOW()
		WHERE uid = $1
		RETURNING created_at, updated_at;
	`

	err := s.conn(ctx).QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PassHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.IsActive,
		user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return models.User{}, storage.ErrUserNotFound
		case isUniqueViolation(err):
			return models.User{}, storage.ErrUserExists
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// DeleteUser removes the user. Foreign keys detach their books and reviews.
func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteUser"

	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM users WHERE uid = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}
