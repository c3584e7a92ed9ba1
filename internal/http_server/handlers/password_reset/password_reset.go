// Package passwordreset serves the three steps of the password reset flow:
// request a link, check a link and set the new password.
package passwordreset

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"bookly/internal/lib/api/apierror"
	"bookly/internal/lib/api/request"
	resp "bookly/internal/lib/api/response"
)

type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=32"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type PasswordResetter interface {
	RequestPasswordReset(ctx context.Context, email string) error
	ValidatePasswordResetToken(ctx context.Context, token string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword, confirmPassword string) error
}

// Request godoc
// @Summary      Request password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetRequest true "account email"
// @Success      200 {object} resp.Response
// @Failure      403 {object} resp.Response "account_not_active / account_not_verified"
// @Failure      404 {object} resp.Response "user_not_found"
// @Router       /auth/password-reset-request [post]
func Request(log *slog.Logger, validate *validator.Validate, svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.passwordreset.Request"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ResetRequest
		if !request.Bind(w, r, log, validate, &req) {
			return
		}

		if err := svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
			apierror.Render(w, r, log, err)

			return
		}

		render.JSON(w, r, resp.OKMessage("Please check your email for instructions to reset your password"))
	}
}

// Validate godoc
// @Summary      Check password reset link
// @Tags         auth
// @Produce      json
// @Param        token path string true "password reset token"
// @Success      200 {object} resp.Response
// @Failure      400 {object} resp.Response "invalid_verification_token"
// @Router       /auth/password-reset-confirm/{token} [get]
func Validate(log *slog.Logger, svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.passwordreset.Validate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := svc.ValidatePasswordResetToken(r.Context(), chi.URLParam(r, "token")); err != nil {
			apierror.Render(w, r, log, err)

			return
		}

		render.JSON(w, r, resp.OKMessage("Token is valid"))
	}
}

// Confirm godoc
// @Summary      Set a new password
// @Description  Passwords are compared before the token is looked at. Each link works once.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token   path string         true "password reset token"
// @Param        request body ConfirmRequest true "new password twice"
// @Success      200 {object} resp.Response
// @Failure      400 {object} resp.Response "passwords_do_not_match / invalid_verification_token"
// @Router       /auth/password-reset-confirm/{token} [post]
func Confirm(log *slog.Logger, validate *validator.Validate, svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.passwordreset.Confirm"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ConfirmRequest
		if !request.Bind(w, r, log, validate, &req) {
			return
		}

		err := svc.ConfirmPasswordReset(r.Context(), chi.URLParam(r, "token"), req.NewPassword, req.ConfirmPassword)
		if err != nil {
			apierror.Render(w, r, log, err)

			return
		}

		log.Info("password reset")

		render.JSON(w, r, resp.OKMessage("Password reset successfully"))
	}
}
