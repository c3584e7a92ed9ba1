// Package apierror translates domain errors into HTTP responses. It is the
// only place where sentinel errors meet status codes.
package apierror

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"bookly/internal/auth"
	resp "bookly/internal/lib/api/response"
	"bookly/internal/lib/logger/sl"
	"bookly/internal/permission"
	"bookly/internal/storage"
)

const CodeServerError = "server_error"

type Kind struct {
	Status     int
	Code       string
	Message    string
	Resolution string
}

var mapping = []struct {
	err  error
	kind Kind
}{
	{auth.ErrUnauthenticated, Kind{http.StatusUnauthorized, "not_authenticated", "Not authenticated", "Please provide a bearer token"}},
	{auth.ErrInvalidToken, Kind{http.StatusUnauthorized, "invalid_token", "Token is invalid or expired", "Please get new token"}},
	{auth.ErrAccessTokenRequired, Kind{http.StatusUnauthorized, "access_token_required", "Please provide a valid access token", "Please get an access token"}},
	{auth.ErrRefreshTokenRequired, Kind{http.StatusUnauthorized, "refresh_token_required", "Please provide a valid refresh token", "Please get a refresh token"}},
	{auth.ErrInvalidCredentials, Kind{http.StatusUnauthorized, "invalid_email_or_password", "Invalid email or password", ""}},
	{permission.ErrInsufficientPermission, Kind{http.StatusForbidden, "insufficient_permissions", "You do not have enough permissions to perform this action", ""}},
	{auth.ErrAccountNotActive, Kind{http.StatusForbidden, "account_not_active", "Account not active", "Please contact the administrator to resolve this issue"}},
	{auth.ErrAccountNotVerified, Kind{http.StatusForbidden, "account_not_verified", "Account not verified", "Please check your email for verification details"}},
	{auth.ErrEmailExists, Kind{http.StatusForbidden, "email_exists", "User with email already exists", ""}},
	{auth.ErrUsernameExists, Kind{http.StatusForbidden, "username_exists", "User with username already exists", ""}},
	{storage.ErrUserNotFound, Kind{http.StatusNotFound, "user_not_found", "User not found", ""}},
	{storage.ErrBookNotFound, Kind{http.StatusNotFound, "book_not_found", "Book not found", ""}},
	{storage.ErrReviewNotFound, Kind{http.StatusNotFound, "review_not_found", "Review not found", ""}},
	{storage.ErrTagNotFound, Kind{http.StatusNotFound, "tag_not_found", "Tag not found", ""}},
	{auth.ErrInvalidVerificationToken, Kind{http.StatusBadRequest, "invalid_verification_token", "Invalid verification token", ""}},
	{auth.ErrPasswordsDoNotMatch, Kind{http.StatusBadRequest, "passwords_do_not_match", "Passwords do not match", ""}},
}

var serverError = Kind{http.StatusInternalServerError, CodeServerError, "Oops! Something went wrong", ""}

// Classify returns the response kind for err. Unknown errors are server errors.
func Classify(err error) Kind {
	for _, m := range mapping {
		if errors.Is(err, m.err) {
			return m.kind
		}
	}

	return serverError
}

// Render writes err as a JSON error response. Server errors are logged and
// their details never leave the process.
func Render(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	kind := Classify(err)

	if kind.Status == http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Info("request rejected", slog.String("error_code", kind.Code), sl.Err(err))
	}

	if kind.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	render.Status(r, kind.Status)
	render.JSON(w, r, resp.Response{
		Status:     resp.StatusError,
		Error:      kind.Message,
		ErrorCode:  kind.Code,
		Resolution: kind.Resolution,
	})
}
