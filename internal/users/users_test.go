package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookly/internal/auth"
	"bookly/internal/lib/logger/handlers/slogdiscard"
	"bookly/internal/models"
	"bookly/internal/permission"
	"bookly/internal/storage"
	"bookly/internal/storage/memory"
)

type fixture struct {
	svc   *Service
	store *memory.Storage
	john  models.User
	jane  models.User
	admin models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := memory.New()
	ctx := context.Background()

	save := func(username string, role models.Role) models.User {
		u, err := store.SaveUser(ctx, models.User{
			Username: username, Email: username + "@co.com", Role: role, IsActive: true, IsVerified: true,
		})
		require.NoError(t, err)
		return u
	}

	return fixture{
		svc:   New(slogdiscard.NewDiscardLogger(), store, store, store),
		store: store,
		john:  save("john", models.RoleUser),
		jane:  save("jane", models.RoleUser),
		admin: save("root", models.RoleAdmin),
	}
}

func ptr(s string) *string { return &s }

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, f.john)
	assert.ErrorIs(t, err, permission.ErrInsufficientPermission)

	users, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.False(t, u.IsAdmin())
	}
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book, err := f.store.SaveBook(ctx, models.Book{Title: "Dune", UserID: &f.john.ID})
	require.NoError(t, err)
	_, err = f.store.SaveReview(ctx, models.Review{Rating: 5, UserID: &f.john.ID, BookID: &book.ID})
	require.NoError(t, err)

	profile, err := f.svc.Profile(ctx, "john")
	require.NoError(t, err)
	assert.Equal(t, f.john.ID, profile.ID)
	assert.Len(t, profile.Books, 1)
	assert.Len(t, profile.Reviews, 1)

	_, err = f.svc.Profile(ctx, "root")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = f.svc.Profile(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, f.jane, f.john.ID, models.UserUpdate{FirstName: ptr("Eve")})
	assert.ErrorIs(t, err, permission.ErrInsufficientPermission)

	updated, err := f.svc.Update(ctx, f.john, f.john.ID, models.UserUpdate{FirstName: ptr("John"), Email: ptr("john@co.com")})
	require.NoError(t, err)
	assert.Equal(t, "John", updated.FirstName)

	_, err = f.svc.Update(ctx, f.john, f.john.ID, models.UserUpdate{Email: ptr("jane@co.com")})
	assert.ErrorIs(t, err, auth.ErrEmailExists)

	_, err = f.svc.Update(ctx, f.john, f.john.ID, models.UserUpdate{Username: ptr("jane")})
	assert.ErrorIs(t, err, auth.ErrUsernameExists)

	updated, err = f.svc.Update(ctx, f.admin, f.jane.ID, models.UserUpdate{Username: ptr("janet")})
	require.NoError(t, err)
	assert.Equal(t, "janet", updated.Username)

	_, err = f.svc.Update(ctx, f.admin, uuid.New(), models.UserUpdate{})
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Delete(ctx, f.jane, f.john.ID), permission.ErrInsufficientPermission)
	require.NoError(t, f.svc.Delete(ctx, f.john, f.john.ID))
	require.NoError(t, f.svc.Delete(ctx, f.admin, f.jane.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.admin, f.jane.ID), storage.ErrUserNotFound)

	users, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Empty(t, users)
}
