// Package users serves account profiles.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bookly/internal/lib/api/apierror"
	"bookly/internal/lib/api/request"
	resp "bookly/internal/lib/api/response"
	"bookly/internal/middleware/authgate"
	"bookly/internal/models"
)

// UserParam is the path parameter of /user-profile routes. It carries a
// username on GET and a user uid on PUT and DELETE.
const UserParam = "user"

type UpdateRequest struct {
	Username  *string `json:"username" validate:"omitnil,min=3,max=16"`
	Email     *string `json:"email" validate:"omitnil,email"`
	FirstName *string `json:"first_name" validate:"omitnil,min=3,max=25"`
	LastName  *string `json:"last_name" validate:"omitnil,min=3,max=25"`
}

type UserResponse struct {
	resp.Response
	User models.User `json:"user"`
}

type ProfileResponse struct {
	resp.Response
	User models.UserProfile `json:"user"`
}

type ListResponse struct {
	resp.Response
	Users []models.User `json:"users"`
}

type UserService interface {
	List(ctx context.Context, actor models.User) ([]models.User, error)
	Profile(ctx context.Context, username string) (models.UserProfile, error)
	Update(ctx context.Context, actor models.User, targetID uuid.UUID, upd models.UserUpdate) (models.User, error)
	Delete(ctx context.Context, actor models.User, targetID uuid.UUID) error
}

func logger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Me returns the account behind the access token.
func Me(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.users.Me")

		user, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		render.JSON(w, r, UserResponse{Response: resp.OK(), User: user})
	}
}

// List returns every non-admin account. Mounted behind AdminOnly.
func List(log *slog.Logger, svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.users.List")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		users, err := svc.List(r.Context(), actor)
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ListResponse{Response: resp.OK(), Users: users})
	}
}

// Profile godoc
// @Summary      Public profile
// @Description  A user with their books and reviews. Admin accounts are not listed.
// @Tags         users
// @Produce      json
// @Param        user path string true "username"
// @Success      200 {object} ProfileResponse
// @Failure      404 {object} resp.Response "user_not_found"
// @Router       /users/user-profile/{user} [get]
func Profile(log *slog.Logger, svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.users.Profile")

		profile, err := svc.Profile(r.Context(), chi.URLParam(r, UserParam))
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ProfileResponse{Response: resp.OK(), User: profile})
	}
}

// Update changes a profile. Self or admin only.
func Update(log *slog.Logger, v *validator.Validate, svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.users.Update")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		id, ok := request.UUIDParam(w, r, log, UserParam)
		if !ok {
			return
		}

		var req UpdateRequest
		if !request.Bind(w, r, log, v, &req) {
			return
		}

		user, err := svc.Update(r.Context(), actor, id, models.UserUpdate{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, UserResponse{Response: resp.OK(), User: user})
	}
}

func Delete(log *slog.Logger, svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.users.Delete")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		id, ok := request.UUIDParam(w, r, log, UserParam)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.NoContent(w, r)
	}
}
