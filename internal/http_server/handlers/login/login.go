package login

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bookly/internal/auth"
	"bookly/internal/lib/api/apierror"
	"bookly/internal/lib/api/request"
	resp "bookly/internal/lib/api/response"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type User struct {
	Email string    `json:"email"`
	UID   uuid.UUID `json:"uid"`
}

type Response struct {
	resp.Response
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type UserLogin interface {
	Login(ctx context.Context, email, password string) (auth.TokenPair, error)
}

// New godoc
// @Summary      Log in
// @Description  Exchanges credentials of an active, verified account for an access and a refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body Request true "credentials"
// @Success      200 {object} Response
// @Failure      401 {object} resp.Response "invalid_email_or_password"
// @Failure      403 {object} resp.Response "account_not_active / account_not_verified"
// @Router       /auth/login [post]
func New(log *slog.Logger, validate *validator.Validate, svc UserLogin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if !request.Bind(w, r, log, validate, &req) {
			return
		}

		pair, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			apierror.Render(w, r, log, err)

			return
		}

		log.Info("user logged in", slog.String("uid", pair.User.ID.String()))

		render.JSON(w, r, Response{
			Response:     resp.OKMessage("Login successful"),
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			User: User{
				Email: pair.User.Email,
				UID:   pair.User.ID,
			},
		})
	}
}
