// Package tags serves book tagging.
package tags

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bookly/internal/lib/api/apierror"
	"bookly/internal/lib/api/request"
	resp "bookly/internal/lib/api/response"
	"bookly/internal/middleware/authgate"
	"bookly/internal/models"
)

type TagName struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type AddRequest struct {
	Tags []TagName `json:"tags" validate:"required,min=1,dive"`
}

type TagResponse struct {
	resp.Response
	Tag models.Tag `json:"tag"`
}

type ListResponse struct {
	resp.Response
	Tags []models.Tag `json:"tags"`
}

type TagService interface {
	Get(ctx context.Context, id uuid.UUID) (models.Tag, error)
	OfBook(ctx context.Context, bookID uuid.UUID) ([]models.Tag, error)
	AddToBook(ctx context.Context, actor models.User, bookID uuid.UUID, names []string) ([]models.Tag, error)
	Replace(ctx context.Context, actor models.User, bookID, tagID uuid.UUID, name string) ([]models.Tag, error)
	RemoveFromBook(ctx context.Context, actor models.User, bookID, tagID uuid.UUID) error
}

func logger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func Get(log *slog.Logger, svc TagService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.tags.Get")

		id, ok := request.UUIDParam(w, r, log, "tag_uid")
		if !ok {
			return
		}

		tag, err := svc.Get(r.Context(), id)
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, TagResponse{Response: resp.OK(), Tag: tag})
	}
}

func OfBook(log *slog.Logger, svc TagService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.tags.OfBook")

		bookID, ok := request.UUIDParam(w, r, log, "book_uid")
		if !ok {
			return
		}

		tags, err := svc.OfBook(r.Context(), bookID)
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ListResponse{Response: resp.OK(), Tags: tags})
	}
}

// AddToBook godoc
// @Summary      Tag a book
// @Description  Existing tags are reused by name. Owner of the book or admin only.
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        book_uid path string     true "book id"
// @Param        request  body AddRequest true "tag names"
// @Success      200 {object} ListResponse
// @Router       /tags/book/{book_uid} [post]
func AddToBook(log *slog.Logger, v *validator.Validate, svc TagService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.tags.AddToBook")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		bookID, ok := request.UUIDParam(w, r, log, "book_uid")
		if !ok {
			return
		}

		var req AddRequest
		if !request.Bind(w, r, log, v, &req) {
			return
		}

		names := make([]string, 0, len(req.Tags))
		for _, t := range req.Tags {
			names = append(names, t.Name)
		}

		tags, err := svc.AddToBook(r.Context(), actor, bookID, names)
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ListResponse{Response: resp.OK(), Tags: tags})
	}
}

// Replace swaps tag_uid on a book for the tag with the given name.
func Replace(log *slog.Logger, v *validator.Validate, svc TagService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.tags.Replace")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		bookID, ok := request.UUIDParam(w, r, log, "book_uid")
		if !ok {
			return
		}

		tagID, ok := request.UUIDParam(w, r, log, "tag_uid")
		if !ok {
			return
		}

		var req TagName
		if !request.Bind(w, r, log, v, &req) {
			return
		}

		tags, err := svc.Replace(r.Context(), actor, bookID, tagID, req.Name)
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ListResponse{Response: resp.OK(), Tags: tags})
	}
}

func RemoveFromBook(log *slog.Logger, svc TagService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.tags.RemoveFromBook")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		bookID, ok := request.UUIDParam(w, r, log, "book_uid")
		if !ok {
			return
		}

		tagID, ok := request.UUIDParam(w, r, log, "tag_uid")
		if !ok {
			return
		}

		if err := svc.RemoveFromBook(r.Context(), actor, bookID, tagID); err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.NoContent(w, r)
	}
}
