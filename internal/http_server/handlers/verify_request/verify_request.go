package verifyrequest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"bookly/internal/lib/api/apierror"
	"bookly/internal/lib/api/request"
	resp "bookly/internal/lib/api/response"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type VerificationRequester interface {
	RequestVerification(ctx context.Context, email string) (alreadyVerified bool, err error)
}

// New godoc
// @Summary      Resend verification email
// @Description  Mails a fresh verification link unless the account is already verified.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body Request true "account email"
// @Success      200 {object} resp.Response
// @Failure      404 {object} resp.Response "user_not_found"
// @Router       /auth/verify [post]
func New(log *slog.Logger, validate *validator.Validate, svc VerificationRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verifyrequest.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if !request.Bind(w, r, log, validate, &req) {
			return
		}

		alreadyVerified, err := svc.RequestVerification(r.Context(), req.Email)
		if err != nil {
			apierror.Render(w, r, log, err)

			return
		}

		if alreadyVerified {
			render.JSON(w, r, resp.OKMessage("Email already verified"))

			return
		}

		log.Info("verification email requested")

		render.JSON(w, r, resp.OKMessage("Verification email sent"))
	}
}
