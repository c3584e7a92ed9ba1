package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookly/internal/lib/logger/handlers/slogdiscard"
	"bookly/internal/models"
	"bookly/internal/permission"
	"bookly/internal/storage"
	"bookly/internal/storage/memory"
)

func TestReviews(t *testing.T) {
	store := memory.New()
	svc := New(slogdiscard.NewDiscardLogger(), store, store, store)
	ctx := context.Background()

	author := models.User{ID: uuid.New(), Role: models.RoleUser}
	other := models.User{ID: uuid.New(), Role: models.RoleUser}
	admin := models.User{ID: uuid.New(), Role: models.RoleAdmin}

	_, err := svc.Add(ctx, author, uuid.New(), 5, "great")
	assert.ErrorIs(t, err, storage.ErrBookNotFound)

	book, err := store.SaveBook(ctx, models.Book{Title: "Dune"})
	require.NoError(t, err)

	review, err := svc.Add(ctx, author, book.ID, 5, "great")
	require.NoError(t, err)
	assert.Equal(t, author.ID, *review.UserID)
	assert.Equal(t, book.ID, *review.BookID)

	rating := 1
	_, err = svc.Update(ctx, other, review.ID, models.ReviewUpdate{Rating: &rating})
	assert.ErrorIs(t, err, permission.ErrInsufficientPermission)

	text := "changed my mind"
	updated, err := svc.Update(ctx, author, review.ID, models.ReviewUpdate{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, text, updated.Text)
	assert.Equal(t, 5, updated.Rating)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, svc.Delete(ctx, other, review.ID), permission.ErrInsufficientPermission)
	require.NoError(t, svc.Delete(ctx, admin, review.ID))

	_, err = svc.Get(ctx, review.ID)
	assert.ErrorIs(t, err, storage.ErrReviewNotFound)
}
