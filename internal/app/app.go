// Package app assembles the services and the HTTP router from configuration
// and already connected infrastructure.
package app

import (
	"log/slog"
	"net/http"

	"bookly/internal/auth"
	"bookly/internal/books"
	"bookly/internal/config"
	"bookly/internal/email"
	httpserver "bookly/internal/http_server"
	"bookly/internal/lib/jwt"
	"bookly/internal/lib/verification"
	"bookly/internal/reviews"
	"bookly/internal/revocation"
	"bookly/internal/storage"
	"bookly/internal/tags"
	"bookly/internal/users"
)

// Repository is everything the services need from a storage driver.
// Both the postgres and the memory drivers implement it.
type Repository interface {
	storage.TxManager
	auth.UserStorage
	users.UserStorage
	users.SubmissionProvider
	books.BookStorage
	books.DetailProvider
	reviews.ReviewStorage
	tags.TagStorage
}

type Deps struct {
	Store Repository
	// Revocation may be nil; revoked ids are then kept in process only.
	Revocation revocation.Backend
	Notifier   email.Notifier
	// Publisher may be nil; emails are then sent through Notifier.
	Publisher email.Publisher
}

type App struct {
	Router     http.Handler
	Dispatcher *email.Dispatcher
	Revoked    *revocation.Store
	Tokens     *jwt.Codec
}

func New(log *slog.Logger, cfg *config.Config, deps Deps) *App {
	revoked := revocation.New(log, deps.Revocation)

	dispatcher := email.New(log, deps.Notifier, deps.Publisher, email.Options{
		BaseURL:             cfg.BaseURL,
		VerificationMaxAge:  cfg.Tokens.VerificationMaxAge,
		PasswordResetMaxAge: cfg.Tokens.PasswordResetMaxAge,
	})

	tokens := jwt.New(cfg.Tokens.JWTSecret, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL)
	purpose := verification.New(cfg.Tokens.PurposeSecret, cfg.Tokens.PurposeSalt)

	store := deps.Store

	services := httpserver.Services{
		Auth: auth.New(log, store, store, tokens, purpose, revoked, dispatcher, auth.Settings{
			JTIRetention:        cfg.Tokens.JTIRetention,
			VerificationMaxAge:  cfg.Tokens.VerificationMaxAge,
			PasswordResetMaxAge: cfg.Tokens.PasswordResetMaxAge,
		}),
		Gate:    auth.NewGate(log, tokens, revoked, store),
		Users:   users.New(log, store, store, store),
		Books:   books.New(log, store, store, store),
		Reviews: reviews.New(log, store, store, store),
		Tags:    tags.New(log, store, store, store),
	}

	return &App{
		Router:     httpserver.NewRouter(log, services, cfg.HTTPServer.AuthRateLimit),
		Dispatcher: dispatcher,
		Revoked:    revoked,
		Tokens:     tokens,
	}
}
