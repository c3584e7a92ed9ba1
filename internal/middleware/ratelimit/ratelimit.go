// Package ratelimit throttles the unauthenticated auth endpoints per client IP.
package ratelimit

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	resp "bookly/internal/lib/api/response"
)

const CodeTooManyRequests = "too_many_requests"

// Credentials limits endpoints that check a password or create an account to
// limit requests per minute.
func Credentials(limit int) func(http.Handler) http.Handler {
	return limitByIP(limit, time.Minute)
}

// Mail limits endpoints that send email. They get a quarter of limit.
func Mail(limit int) func(http.Handler) http.Handler {
	return limitByIP(max(1, limit/4), time.Minute)
}

// Tokens limits endpoints that consume purpose tokens.
func Tokens(limit int) func(http.Handler) http.Handler {
	return limitByIP(limit, time.Minute)
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusTooManyRequests)
	render.JSON(w, r, resp.ErrorWithCode("Too many requests, try again later", CodeTooManyRequests))
}
