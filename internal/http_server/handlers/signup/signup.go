package signup

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"bookly/internal/auth"
	"bookly/internal/lib/api/apierror"
	"bookly/internal/lib/api/request"
	resp "bookly/internal/lib/api/response"
	"bookly/internal/models"
)

type Request struct {
	Username  string `json:"username" validate:"required,min=3,max=16"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=32"`
	FirstName string `json:"first_name" validate:"max=25"`
	LastName  string `json:"last_name" validate:"max=25"`
}

type Response struct {
	resp.Response
	User models.User `json:"user"`
}

type UserRegistrar interface {
	Register(ctx context.Context, in auth.RegisterInput) (models.User, error)
}

// New godoc
// @Summary      Sign up
// @Description  Creates an unverified account with role user and mails a verification link.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body Request true "account data"
// @Success      201 {object} Response
// @Failure      400 {object} resp.Response "bad_request / validation_error"
// @Failure      403 {object} resp.Response "email_exists / username_exists"
// @Router       /auth/signup [post]
func New(log *slog.Logger, validate *validator.Validate, registrar UserRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signup.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if !request.Bind(w, r, log, validate, &req) {
			return
		}

		user, err := registrar.Register(r.Context(), auth.RegisterInput{
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			apierror.Render(w, r, log, err)

			return
		}

		log.Info("user signed up", slog.String("uid", user.ID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OKMessage("Account Created! Check your email to verify your account"),
			User:     user,
		})
	}
}
