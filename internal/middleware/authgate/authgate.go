package authgate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"bookly/internal/auth"
	"bookly/internal/lib/api/apierror"
	"bookly/internal/lib/jwt"
	"bookly/internal/models"
	"bookly/internal/permission"
)

type ctxKey int

const identityKey ctxKey = iota

type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string, kind jwt.Kind) (auth.Identity, error)
}

// RequireAccess admits requests carrying a valid access token of an active,
// verified account.
func RequireAccess(log *slog.Logger, gate Authenticator) func(http.Handler) http.Handler {
	return guard(log, gate, jwt.KindAccess)
}

// RequireRefresh admits requests carrying a valid refresh token.
func RequireRefresh(log *slog.Logger, gate Authenticator) func(http.Handler) http.Handler {
	return guard(log, gate, jwt.KindRefresh)
}

func guard(log *slog.Logger, gate Authenticator, kind jwt.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authgate"

			identity, err := gate.Authenticate(r.Context(), r.Header.Get("Authorization"), kind)
			if err != nil {
				apierror.Render(w, r, log.With(
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("required_kind", kind.String()),
				), err)

				return
			}

			ctx := WithIdentity(r.Context(), identity)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly must run after RequireAccess.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				apierror.Render(w, r, log, auth.ErrUnauthenticated)
				return
			}

			if err := permission.RequireAdmin(user); err != nil {
				apierror.Render(w, r, log.With(
					slog.String("request_id", middleware.GetReqID(r.Context())),
				), err)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func identity(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// CurrentUser returns the account resolved from an access token.
func CurrentUser(ctx context.Context) (models.User, bool) {
	id, ok := identity(ctx)
	if !ok || id.Claims == nil || id.Claims.Kind() != jwt.KindAccess {
		return models.User{}, false
	}

	return id.User, true
}

// Claims returns the decoded token of the request.
func Claims(ctx context.Context) (*jwt.Claims, bool) {
	id, ok := identity(ctx)
	if !ok || id.Claims == nil {
		return nil, false
	}

	return id.Claims, true
}

// WithIdentity stores id in ctx the same way the gate does.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Actor returns the current user for handlers mounted behind RequireAccess.
// It writes a 401 and returns false when there is none.
func Actor(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.User, bool) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		apierror.Render(w, r, log, auth.ErrUnauthenticated)
		return models.User{}, false
	}

	return user, true
}
