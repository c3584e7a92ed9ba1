// Package books serves the book catalogue.
package books

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bookly/internal/lib/api/apierror"
	"bookly/internal/lib/api/request"
	resp "bookly/internal/lib/api/response"
	"bookly/internal/lib/validate"
	"bookly/internal/middleware/authgate"
	"bookly/internal/models"
)

type CreateRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=200"`
	Author        string `json:"author" validate:"required,min=1,max=100"`
	Publisher     string `json:"publisher" validate:"required,min=1,max=100"`
	PageCount     int    `json:"page_count" validate:"required,gt=0"`
	Language      string `json:"language" validate:"required,min=2,max=10"`
	PublishedDate string `json:"published_date" validate:"required,datetime=2006-01-02,notfuture"`
}

type UpdateRequest struct {
	Title     *string `json:"title" validate:"omitnil,min=1,max=200"`
	Author    *string `json:"author" validate:"omitnil,min=1,max=100"`
	Publisher *string `json:"publisher" validate:"omitnil,min=1,max=100"`
	PageCount *int    `json:"page_count" validate:"omitnil,gt=0"`
	Language  *string `json:"language" validate:"omitnil,min=2,max=10"`
}

type BookResponse struct {
	resp.Response
	Book models.Book `json:"book"`
}

type DetailResponse struct {
	resp.Response
	Book models.BookDetail `json:"book"`
}

type ListResponse struct {
	resp.Response
	Books []models.Book `json:"books"`
}

type BookService interface {
	Create(ctx context.Context, actor models.User, book models.Book) (models.Book, error)
	List(ctx context.Context) ([]models.Book, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Book, error)
	Detail(ctx context.Context, id uuid.UUID) (models.BookDetail, error)
	Update(ctx context.Context, actor models.User, id uuid.UUID, upd models.BookUpdate) (models.Book, error)
	Delete(ctx context.Context, actor models.User, id uuid.UUID) error
}

func logger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Create godoc
// @Summary      Add a book
// @Description  The caller becomes the owner.
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        request body CreateRequest true "book"
// @Success      201 {object} BookResponse
// @Router       /books/ [post]
func Create(log *slog.Logger, v *validator.Validate, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.books.Create")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		var req CreateRequest
		if !request.Bind(w, r, log, v, &req) {
			return
		}

		// already checked by the datetime tag
		published, _ := time.Parse(validate.DateLayout, req.PublishedDate)

		book, err := svc.Create(r.Context(), actor, models.Book{
			Title:         req.Title,
			Author:        req.Author,
			Publisher:     req.Publisher,
			PageCount:     req.PageCount,
			Language:      req.Language,
			PublishedDate: published,
		})
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, BookResponse{Response: resp.OK(), Book: book})
	}
}

func List(log *slog.Logger, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.books.List")

		books, err := svc.List(r.Context())
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ListResponse{Response: resp.OK(), Books: books})
	}
}

// ListByUser returns the books submitted by user_uid.
func ListByUser(log *slog.Logger, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.books.ListByUser")

		userID, ok := request.UUIDParam(w, r, log, "user_uid")
		if !ok {
			return
		}

		books, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ListResponse{Response: resp.OK(), Books: books})
	}
}

// Get returns a book with its reviews and tags.
func Get(log *slog.Logger, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.books.Get")

		id, ok := request.UUIDParam(w, r, log, "book_uid")
		if !ok {
			return
		}

		detail, err := svc.Detail(r.Context(), id)
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, DetailResponse{Response: resp.OK(), Book: detail})
	}
}

// Update godoc
// @Summary      Update a book
// @Description  Owner or admin only. Absent fields are left unchanged.
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        book_uid path string        true "book id"
// @Param        request  body UpdateRequest true "changes"
// @Success      200 {object} BookResponse
// @Failure      403 {object} resp.Response "insufficient_permissions"
// @Failure      404 {object} resp.Response "book_not_found"
// @Router       /books/{book_uid} [put]
func Update(log *slog.Logger, v *validator.Validate, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.books.Update")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		id, ok := request.UUIDParam(w, r, log, "book_uid")
		if !ok {
			return
		}

		var req UpdateRequest
		if !request.Bind(w, r, log, v, &req) {
			return
		}

		book, err := svc.Update(r.Context(), actor, id, models.BookUpdate{
			Title:     req.Title,
			Author:    req.Author,
			Publisher: req.Publisher,
			PageCount: req.PageCount,
			Language:  req.Language,
		})
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, BookResponse{Response: resp.OK(), Book: book})
	}
}

func Delete(log *slog.Logger, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.books.Delete")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		id, ok := request.UUIDParam(w, r, log, "book_uid")
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.NoContent(w, r)
	}
}
