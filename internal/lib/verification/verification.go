package verification

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid purpose token")
	ErrTokenExpired = errors.New("purpose token expired")
)

const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

// Codec encodes short payloads into signed URL-safe tokens. Tokens carry only
// their issue time; how long they stay valid is decided by the caller of Decode.
type Codec struct {
	key []byte
	now func() time.Time
}

type purposeClaims struct {
	Payload map[string]string `json:"payload"`
	// Stamp is the issue time in nanoseconds. iat alone has second
	// resolution and would repeat tokens issued within the same second.
	Stamp int64 `json:"stamp"`
	jwt.RegisteredClaims
}

// New derives the signing key from secret and salt, so tokens signed for one
// salt never verify under another.
func New(secret, salt string) *Codec {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(salt))

	return &Codec{
		key: mac.Sum(nil),
		now: time.Now,
	}
}

func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

func (c *Codec) Issue(payload map[string]string) (string, error) {
	const op = "verification.Issue"

	now := c.now()

	claims := purposeClaims{
		Payload: payload,
		Stamp:   now.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// Decode returns the payload if the signature is valid and the token was
// issued no longer than maxAge ago.
func (c *Codec) Decode(tokenStr string, maxAge time.Duration) (map[string]string, error) {
	const op = "verification.Decode"

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &purposeClaims{}

	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%s: missing iat: %w", op, ErrInvalidToken)
	}

	if c.now().Sub(claims.IssuedAt.Time) > maxAge {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	return claims.Payload, nil
}
