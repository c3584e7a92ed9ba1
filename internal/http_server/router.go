// Package httpserver wires the HTTP handlers under /api/v1.
package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"bookly/internal/auth"
	"bookly/internal/books"
	bookshandler "bookly/internal/http_server/handlers/books"
	"bookly/internal/http_server/handlers/login"
	"bookly/internal/http_server/handlers/logout"
	passwordreset "bookly/internal/http_server/handlers/password_reset"
	"bookly/internal/http_server/handlers/refresh"
	reviewshandler "bookly/internal/http_server/handlers/reviews"
	"bookly/internal/http_server/handlers/signup"
	tagshandler "bookly/internal/http_server/handlers/tags"
	usershandler "bookly/internal/http_server/handlers/users"
	"bookly/internal/http_server/handlers/verify"
	verifyrequest "bookly/internal/http_server/handlers/verify_request"
	resp "bookly/internal/lib/api/response"
	"bookly/internal/lib/validate"
	"bookly/internal/middleware/authgate"
	"bookly/internal/middleware/ratelimit"
	"bookly/internal/reviews"
	"bookly/internal/tags"
	"bookly/internal/users"
)

const APIPrefix = "/api/v1"

type Services struct {
	Auth    *auth.Auth
	Gate    *auth.Gate
	Users   *users.Service
	Books   *books.Service
	Reviews *reviews.Service
	Tags    *tags.Service
}

// NewRouter builds the API. authRateLimit is the per-minute budget of a
// single client on the unauthenticated auth endpoints.
func NewRouter(log *slog.Logger, svc Services, authRateLimit int) *chi.Mux {
	v := validate.New()

	access := authgate.RequireAccess(log, svc.Gate)
	refreshOnly := authgate.RequireRefresh(log, svc.Gate)
	adminOnly := authgate.AdminOnly(log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.ErrorWithCode("Not found", "not_found"))
	})

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(ratelimit.Credentials(authRateLimit)).Post("/signup", signup.New(log, v, svc.Auth))
			r.With(ratelimit.Credentials(authRateLimit)).Post("/login", login.New(log, v, svc.Auth))
			r.With(access).Get("/logout", logout.New(log, svc.Auth))
			r.With(refreshOnly).Get("/refresh-token", refresh.New(log, svc.Auth))

			r.With(ratelimit.Mail(authRateLimit)).Post("/verify", verifyrequest.New(log, v, svc.Auth))
			r.With(ratelimit.Tokens(authRateLimit)).Get("/verify/{token}", verify.New(log, svc.Auth))

			r.With(ratelimit.Mail(authRateLimit)).Post("/password-reset-request", passwordreset.Request(log, v, svc.Auth))
			r.Group(func(r chi.Router) {
				r.Use(ratelimit.Tokens(authRateLimit))
				r.Get("/password-reset-confirm/{token}", passwordreset.Validate(log, svc.Auth))
				r.Post("/password-reset-confirm/{token}", passwordreset.Confirm(log, v, svc.Auth))
			})
		})

		r.Route("/users", func(r chi.Router) {
			profile := "/user-profile/{" + usershandler.UserParam + "}"

			r.Get(profile, usershandler.Profile(log, svc.Users))

			r.Group(func(r chi.Router) {
				r.Use(access)
				r.Get("/me", usershandler.Me(log))
				r.With(adminOnly).Get("/", usershandler.List(log, svc.Users))
				r.Put(profile, usershandler.Update(log, v, svc.Users))
				r.Delete(profile, usershandler.Delete(log, svc.Users))
			})
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", bookshandler.List(log, svc.Books))
			r.Get("/{book_uid}", bookshandler.Get(log, svc.Books))
			r.Get("/user/{user_uid}", bookshandler.ListByUser(log, svc.Books))

			r.Group(func(r chi.Router) {
				r.Use(access)
				r.Post("/", bookshandler.Create(log, v, svc.Books))
				r.Put("/{book_uid}", bookshandler.Update(log, v, svc.Books))
				r.Delete("/{book_uid}", bookshandler.Delete(log, svc.Books))
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", reviewshandler.List(log, svc.Reviews))
			r.Get("/{review_uid}", reviewshandler.Get(log, svc.Reviews))

			r.Group(func(r chi.Router) {
				r.Use(access)
				r.Post("/book/{book_uid}", reviewshandler.Add(log, v, svc.Reviews))
				r.Put("/{review_uid}", reviewshandler.Update(log, v, svc.Reviews))
				r.Delete("/{review_uid}", reviewshandler.Delete(log, svc.Reviews))
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/{tag_uid}", tagshandler.Get(log, svc.Tags))
			r.Get("/book/{book_uid}", tagshandler.OfBook(log, svc.Tags))

			r.Group(func(r chi.Router) {
				r.Use(access)
				r.Post("/book/{book_uid}", tagshandler.AddToBook(log, v, svc.Tags))
				r.Put("/book/{book_uid}/tag/{tag_uid}", tagshandler.Replace(log, v, svc.Tags))
				r.Delete("/book/{book_uid}/tag/{tag_uid}", tagshandler.RemoveFromBook(log, svc.Tags))
			})
		})
	})

	return r
}
