package permission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/frahmantamala/account-hub/internal"
	"github.com/frahmantamala/account-hub/internal/core/common/validation"
	"github.com/frahmantamala/account-hub/internal/core/messages"
	"github.com/frahmantamala/account-hub/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, code, userID string) (List, error)
	Grant(ctx context.Context, code, userID, role string) (List, error)
	Replace(ctx context.Context, code, userID, oldRole, newRole string) (List, error)
	Revoke(ctx context.Context, code, userID, role string) (List, error)
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := ListQuery{
		Authorization: h.ExtractAuthorization(r),
		UserID:        r.URL.Query().Get("user_id"),
	}
	if appErr := validation.Request(q); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	perms, err := h.Service.List(r.Context(), q.Authorization, q.UserID)
	if err != nil {
		h.writeServiceError(w, "List", err)
		return
	}

	h.WriteSuccess(w, messages.Success, perms)
}

func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	code := h.ExtractAuthorization(r)
	var req GrantRequest
	if !h.decode(w, r, code, &req) {
		return
	}

	if _, err := h.Service.Grant(r.Context(), code, req.UserID, req.Role); err != nil {
		h.writeServiceError(w, "Grant", err)
		return
	}

	h.WriteSuccess(w, messages.Success, nil)
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	code := h.ExtractAuthorization(r)
	var req ReplaceRequest
	if !h.decode(w, r, code, &req) {
		return
	}

	if _, err := h.Service.Replace(r.Context(), code, req.UserID, req.OldRole, req.NewRole); err != nil {
		h.writeServiceError(w, "Replace", err)
		return
	}

	h.WriteSuccess(w, messages.Success, nil)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := RevokeQuery{
		Authorization: h.ExtractAuthorization(r),
		UserID:        query.Get("user_id"),
		Role:          query.Get("role"),
	}
	if appErr := validation.Request(q); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if _, err := h.Service.Revoke(r.Context(), q.Authorization, q.UserID, q.Role); err != nil {
		h.writeServiceError(w, "Revoke", err)
		return
	}

	h.WriteSuccess(w, messages.Success, nil)
}

// decode reads the JSON body into dst and checks that code and every required
// body field are present. It writes the error response itself and reports
// whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, code string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.Logger.Debug("unreadable permission request body", "error", err)
		h.WriteAppError(w, internal.ErrMissingFields)
		return false
	}

	appErr := validation.Request(dst)
	if code == "" {
		missing := internal.ValidationError{Field: "authorization", Message: "authorization is required"}
		if appErr == nil {
			appErr = internal.NewValidationError(missing)
		} else {
			appErr = appErr.WithDetails(append([]internal.ValidationError{missing}, appErr.Details...)...)
		}
	}
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidAuthorization):
		h.WriteAppError(w, internal.ErrInvalidAuthorization)
	case errors.Is(err, ErrUserNotFound):
		h.WriteAppError(w, internal.ErrUserNotFound)
	case errors.Is(err, ErrConflict):
		h.WriteAppError(w, internal.ErrConcurrentUpdate)
	default:
		h.Logger.Error(op+": permission operation failed", "error", err)
		h.WriteAppError(w, internal.NewInternalError(err))
	}
}
