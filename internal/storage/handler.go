package storage

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/account-hub/internal"
	"github.com/frahmantamala/account-hub/internal/core/common/validation"
	"github.com/frahmantamala/account-hub/internal/core/messages"
	"github.com/frahmantamala/account-hub/internal/transport"
)

type ImageDeleter interface {
	DeleteImageByURL(ctx context.Context, imageURL string) (bool, error)
}

type DeleteImageQuery struct {
	URL string `json:"url" validate:"required"`
}

type DeleteImageResponse struct {
	Deleted bool `json:"deleted"`
}

type Handler struct {
	*transport.BaseHandler
	Images ImageDeleter
}

func NewHandler(baseHandler *transport.BaseHandler, images ImageDeleter) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Images:      images,
	}
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if internal.UserIDFromContext(r.Context()) == "" {
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	q := DeleteImageQuery{URL: r.URL.Query().Get("url")}
	if appErr := validation.Request(q); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	deleted, err := h.Images.DeleteImageByURL(r.Context(), q.URL)
	if err != nil {
		if errors.Is(err, ErrInvalidURL) {
			h.WriteAppError(w, internal.NewValidationError(internal.ValidationError{
				Field:   "url",
				Message: "url does not address an image",
			}))
			return
		}
		h.Logger.Error("DeleteImage: failed to delete image", "error", err)
		h.WriteAppError(w, internal.NewInternalError(err))
		return
	}

	h.WriteSuccess(w, messages.Success, DeleteImageResponse{Deleted: deleted})
}
