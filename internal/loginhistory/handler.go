package loginhistory

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/account-hub/internal"
	"github.com/frahmantamala/account-hub/internal/core/messages"
	"github.com/frahmantamala/account-hub/internal/transport"
)

type ServiceAPI interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]Login, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	limit := DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationError(internal.ValidationError{
				Field:   "limit",
				Message: "limit must be a number",
			}))
			return
		}
		limit = n
	}

	logins, err := h.Service.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.Logger.Error("ListMine: failed to list logins", "user_id", userID, "error", err)
		h.WriteAppError(w, internal.NewInternalError(err))
		return
	}

	h.WriteSuccess(w, messages.Success, logins)
}
