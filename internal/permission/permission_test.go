package permission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"bookly/internal/models"
)

func TestAuthorize_Matrix(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name    string
		role    models.Role
		isOwner bool
		wantErr bool
	}{
		{name: "admin owner", role: models.RoleAdmin, isOwner: true},
		{name: "admin non-owner", role: models.RoleAdmin, isOwner: false},
		{name: "user owner", role: models.RoleUser, isOwner: true},
		{name: "user non-owner", role: models.RoleUser, isOwner: false, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := models.User{ID: uuid.New(), Role: tt.role}
			if tt.isOwner {
				actor.ID = owner
			}

			err := Authorize(&owner, actor)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInsufficientPermission)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAuthorize_Ownerless(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, models.User{ID: uuid.New(), Role: models.RoleUser}), ErrInsufficientPermission)
	assert.NoError(t, Authorize(nil, models.User{ID: uuid.New(), Role: models.RoleAdmin}))
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(models.User{Role: models.RoleAdmin}))
	assert.ErrorIs(t, RequireAdmin(models.User{Role: models.RoleUser}), ErrInsufficientPermission)
	assert.ErrorIs(t, RequireAdmin(models.User{}), ErrInsufficientPermission)
}
