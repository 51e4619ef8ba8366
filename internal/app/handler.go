package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/frahmantamala/account-hub/internal"
	"github.com/frahmantamala/account-hub/internal/core/common/validation"
	"github.com/frahmantamala/account-hub/internal/core/messages"
	"github.com/frahmantamala/account-hub/internal/transport"
)

type ServiceAPI interface {
	IssueCode(ctx context.Context, id, secret string) (string, time.Time, error)
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

func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteAppError(w, internal.ErrMissingFields)
		return
	}
	if appErr := validation.Request(req); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	code, expiresAt, err := h.Service.IssueCode(r.Context(), req.ClientID, req.ClientSecret)
	if err != nil {
		if errors.Is(err, ErrInvalidClient) {
			h.WriteAppError(w, internal.ErrInvalidClient)
			return
		}
		h.Logger.Error("Token: failed to issue authorization code", "client_id", req.ClientID, "error", err)
		h.WriteAppError(w, internal.NewInternalError(err))
		return
	}

	h.WriteSuccess(w, messages.Success, TokenResponse{
		AuthorizationCode: code,
		ExpiresAt:         expiresAt,
	})
}
