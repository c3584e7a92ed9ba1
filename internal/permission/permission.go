package permission

import (
	"errors"

	"github.com/google/uuid"

	"bookly/internal/models"
)

var ErrInsufficientPermission = errors.New("insufficient permissions")

// Authorize passes when actor is an admin or owns the resource. Ownerless
// resources can only be changed by admins.
func Authorize(ownerID *uuid.UUID, actor models.User) error {
	if actor.IsAdmin() {
		return nil
	}

	if ownerID != nil && *ownerID == actor.ID {
		return nil
	}

	return ErrInsufficientPermission
}

func RequireAdmin(actor models.User) error {
	if actor.IsAdmin() {
		return nil
	}

	return ErrInsufficientPermission
}
