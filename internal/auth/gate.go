package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bookly/internal/lib/jwt"
	"bookly/internal/lib/logger/sl"
	"bookly/internal/models"
	"bookly/internal/storage"
)

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

// Identity is what a request authenticated with. User is only resolved for
// access tokens.
type Identity struct {
	Claims *jwt.Claims
	User   models.User
}

// Gate authenticates bearer tokens of one required kind.
type Gate struct {
	log     *slog.Logger
	tokens  *jwt.Codec
	revoked Revoker
	users   UserProvider
}

func NewGate(log *slog.Logger, tokens *jwt.Codec, revoked Revoker, users UserProvider) *Gate {
	return &Gate{
		log:     log,
		tokens:  tokens,
		revoked: revoked,
		users:   users,
	}
}

// Authenticate runs the checks in order and stops at the first failure:
// token present, token decodes, token not revoked, token kind matches and,
// for access tokens, the account exists and is active and verified.
func (g *Gate) Authenticate(ctx context.Context, authHeader string, kind jwt.Kind) (Identity, error) {
	const op = "auth.Authenticate"

	token, ok := BearerToken(authHeader)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}

	claims, err := g.tokens.Decode(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if g.revoked.IsRevoked(ctx, claims.ID) {
		return Identity{}, fmt.Errorf("%s: revoked: %w", op, ErrInvalidToken)
	}

	if claims.Kind() != kind {
		if kind == jwt.KindAccess {
			return Identity{}, ErrAccessTokenRequired
		}
		return Identity{}, ErrRefreshTokenRequired
	}

	if kind == jwt.KindRefresh {
		return Identity{Claims: claims}, nil
	}

	user, err := g.users.UserByEmail(ctx, claims.User.Email)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			g.log.Error("failed to resolve user", slog.String("op", op), sl.Err(err))
		}
		return Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := checkAccount(user); err != nil {
		return Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	return Identity{Claims: claims, User: user}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
