package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bookly/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Kind tells access tokens apart from refresh tokens.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "access"
}

// UserClaims is the user snapshot embedded into a token.
type UserClaims struct {
	Email string    `json:"email"`
	UID   uuid.UUID `json:"uid"`
	Role  string    `json:"role,omitempty"`
}

type Claims struct {
	User    UserClaims `json:"user"`
	Refresh bool       `json:"refresh"`
	jwt.RegisteredClaims
}

func (c *Claims) Kind() Kind {
	if c.Refresh {
		return KindRefresh
	}
	return KindAccess
}

type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func New(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating tokens.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// NewAccessToken embeds email, uid and role.
func (c *Codec) NewAccessToken(user models.User) (string, error) {
	return c.Issue(UserClaims{
		Email: user.Email,
		UID:   user.ID,
		Role:  string(user.Role),
	}, KindAccess, c.accessTTL)
}

// NewRefreshToken embeds only email and uid so a later role change can't go stale in it.
func (c *Codec) NewRefreshToken(user models.User) (string, error) {
	return c.Issue(UserClaims{
		Email: user.Email,
		UID:   user.ID,
	}, KindRefresh, c.refreshTTL)
}

// AccessFromRefresh issues a fresh access token from refresh token claims.
func (c *Codec) AccessFromRefresh(claims *Claims) (string, error) {
	return c.Issue(UserClaims{
		Email: claims.User.Email,
		UID:   claims.User.UID,
	}, KindAccess, c.accessTTL)
}

func (c *Codec) Issue(user UserClaims, kind Kind, ttl time.Duration) (string, error) {
	const op = "jwt.Issue"

	now := c.now()

	claims := Claims{
		User:    user,
		Refresh: kind == KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// Decode verifies signature and expiry. Every failure is reported as ErrInvalidToken.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	const op = "jwt.Decode"

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}

	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	if !token.Valid || claims.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}
