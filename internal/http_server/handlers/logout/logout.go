package logout

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

type UserLogout interface {
	Logout(ctx context.Context, claims *jwt.Claims)
}

// New godoc
// @Summary      Log out
// @Description  Revokes the presented access token. Other sessions stay valid.
// @Tags         auth
// @Produce      json
// @Security     Bearer
// @Success      200 {object} resp.Response
// @Failure      401 {object} resp.Response
// @Router       /auth/logout [get]
func New(log *slog.Logger, svc UserLogout) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := authgate.Claims(r.Context())
		if !ok {
			apierror.Render(w, r, log, auth.ErrUnauthenticated)

			return
		}

		svc.Logout(r.Context(), claims)

		log.Info("user logged out", slog.String("uid", claims.User.UID.String()))

		render.JSON(w, r, resp.OKMessage("Logged out successfully"))
	}
}
