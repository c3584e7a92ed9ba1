package refresh

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"bookly/internal/auth"
	"bookly/internal/lib/api/apierror"
	resp "bookly/internal/lib/api/response"
	"bookly/internal/lib/jwt"
	"bookly/internal/middleware/authgate"
)

type Response struct {
	resp.Response
	AccessToken string `json:"access_token"`
}

type TokenRefresher interface {
	Refresh(ctx context.Context, claims *jwt.Claims) (string, error)
}

// New godoc
// @Summary      Refresh access token
// @Description  Issues a new access token for a valid refresh token. The refresh token is not rotated.
// @Tags         auth
// @Produce      json
// @Security     Bearer
// @Success      200 {object} Response
// @Failure      401 {object} resp.Response "refresh_token_required / invalid_token"
// @Router       /auth/refresh-token [get]
func New(log *slog.Logger, svc TokenRefresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := authgate.Claims(r.Context())
		if !ok {
			apierror.Render(w, r, log, auth.ErrUnauthenticated)

			return
		}

		accessToken, err := svc.Refresh(r.Context(), claims)
		if err != nil {
			apierror.Render(w, r, log, err)

			return
		}

		log.Info("access token refreshed", slog.String("uid", claims.User.UID.String()))

		render.JSON(w, r, Response{
			Response:    resp.OK(),
			AccessToken: accessToken,
		})
	}
}
