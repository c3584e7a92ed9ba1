// Package reviews serves book reviews.
package reviews

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

type CreateRequest struct {
	Rating     *int   `json:"rating" validate:"required,gte=0,lte=5"`
	ReviewText string `json:"review_text" validate:"required,min=1,max=255"`
}

type UpdateRequest struct {
	Rating     *int    `json:"rating" validate:"omitnil,gte=0,lte=5"`
	ReviewText *string `json:"review_text" validate:"omitnil,min=1,max=255"`
}

type ReviewResponse struct {
	resp.Response
	Review models.Review `json:"review"`
}

type ListResponse struct {
	resp.Response
	Reviews []models.Review `json:"reviews"`
}

type ReviewService interface {
	Add(ctx context.Context, actor models.User, bookID uuid.UUID, rating int, text string) (models.Review, error)
	List(ctx context.Context) ([]models.Review, error)
	Get(ctx context.Context, id uuid.UUID) (models.Review, error)
	Update(ctx context.Context, actor models.User, id uuid.UUID, upd models.ReviewUpdate) (models.Review, error)
	Delete(ctx context.Context, actor models.User, id uuid.UUID) error
}

func logger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func List(log *slog.Logger, svc ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.reviews.List")

		reviews, err := svc.List(r.Context())
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ListResponse{Response: resp.OK(), Reviews: reviews})
	}
}

func Get(log *slog.Logger, svc ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.reviews.Get")

		id, ok := request.UUIDParam(w, r, log, "review_uid")
		if !ok {
			return
		}

		review, err := svc.Get(r.Context(), id)
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ReviewResponse{Response: resp.OK(), Review: review})
	}
}

// Add godoc
// @Summary      Review a book
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        book_uid path string        true "book id"
// @Param        request  body CreateRequest true "review"
// @Success      201 {object} ReviewResponse
// @Failure      404 {object} resp.Response "book_not_found"
// @Router       /reviews/book/{book_uid} [post]
func Add(log *slog.Logger, v *validator.Validate, svc ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.reviews.Add")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		bookID, ok := request.UUIDParam(w, r, log, "book_uid")
		if !ok {
			return
		}

		var req CreateRequest
		if !request.Bind(w, r, log, v, &req) {
			return
		}

		review, err := svc.Add(r.Context(), actor, bookID, *req.Rating, req.ReviewText)
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, ReviewResponse{Response: resp.OK(), Review: review})
	}
}

// Update changes a review. Owner or admin only.
func Update(log *slog.Logger, v *validator.Validate, svc ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.reviews.Update")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		id, ok := request.UUIDParam(w, r, log, "review_uid")
		if !ok {
			return
		}

		var req UpdateRequest
		if !request.Bind(w, r, log, v, &req) {
			return
		}

		review, err := svc.Update(r.Context(), actor, id, models.ReviewUpdate{
			Rating: req.Rating,
			Text:   req.ReviewText,
		})
		if err != nil {
			apierror.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, ReviewResponse{Response: resp.OK(), Review: review})
	}
}

func Delete(log *slog.Logger, svc ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r, "handlers.reviews.Delete")

		actor, ok := authgate.Actor(w, r, log)
		if !ok {
			return
		}

		id, ok := request.UUIDParam(w, r, log, "review_uid")
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
