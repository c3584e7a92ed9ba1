// Package request holds the decode and path-parameter helpers shared by handlers.
package request

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	resp "bookly/internal/lib/api/response"
	"bookly/internal/lib/logger/sl"
)

// Bind decodes the JSON body into dst and validates it. On failure it writes a
// 400 response and returns false.
func Bind(w http.ResponseWriter, r *http.Request, log *slog.Logger, v *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Info("failed to decode request body", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ErrorWithCode("Failed to decode request", resp.CodeBadRequest))

		return false
	}

	if err := v.Struct(dst); err != nil {
		var validateErr validator.ValidationErrors
		if !errors.As(err, &validateErr) {
			log.Error("failed to validate request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ErrorWithCode("Invalid request", resp.CodeBadRequest))

			return false
		}

		log.Info("invalid request", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ValidationError(validateErr))

		return false
	}

	return true
}

// UUIDParam parses the named chi path parameter. On failure it writes a 400
// response and returns false.
func UUIDParam(w http.ResponseWriter, r *http.Request, log *slog.Logger, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Info("invalid path parameter", slog.String("param", name), slog.String("value", raw))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ErrorWithCode("field "+name+" is not a valid uuid", resp.CodeValidationError))

		return uuid.Nil, false
	}

	return id, true
}
