package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/account-hub/internal"
	"github.com/frahmantamala/account-hub/internal/core/messages"
	"github.com/frahmantamala/account-hub/internal/transport"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID string) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	u, err := h.Service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteAppError(w, internal.ErrUserNotFound)
			return
		}
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", userID, "error", err)
		h.WriteAppError(w, internal.NewInternalError(err))
		return
	}

	h.WriteSuccess(w, messages.Success, ToProfileResponse(u))
}
