package verify

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"bookly/internal/auth"
	"bookly/internal/lib/api/apierror"
	resp "bookly/internal/lib/api/response"
)

type EmailVerifier interface {
	ConfirmVerification(ctx context.Context, token string) error
}

// New godoc
// @Summary      Verify email
// @Description  Marks the account verified. Each link works once.
// @Tags         auth
// @Produce      json
// @Param        token path string true "verification token"
// @Success      200 {object} resp.Response
// @Failure      400 {object} resp.Response "invalid_verification_token"
// @Router       /auth/verify/{token} [get]
func New(log *slog.Logger, svc EmailVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := chi.URLParam(r, "token")
		if token == "" {
			apierror.Render(w, r, log, auth.ErrInvalidVerificationToken)

			return
		}

		if err := svc.ConfirmVerification(r.Context(), token); err != nil {
			apierror.Render(w, r, log, err)

			return
		}

		log.Info("email verified")

		render.JSON(w, r, resp.OKMessage("Account verified successfully"))
	}
}
