package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/account-hub/internal"
	"github.com/frahmantamala/account-hub/internal/core/messages"
	"github.com/frahmantamala/account-hub/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// Envelope is the body of every successful API response.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteSuccess writes the success envelope for the catalog entry id.
func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, id messages.ID, data any) {
	msg := messages.Get(id)
	h.WriteJSON(w, msg.Code, Envelope{
		Status:  "success",
		Message: msg.Message,
		Data:    data,
	})
}

// WriteAppError writes err as an error envelope. Anything that is not an
// *internal.AppError is reported as an internal failure.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, err error) {
	appErr := internal.AsAppError(err)
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", status, "error", err)
	} else {
		h.Logger.Warn("http error", "status", status, "code", appErr.Code, "message", appErr.Message())
	}
	h.WriteJSON(w, status, appErr)
}

// ExtractAuthorization returns the authorization header value, accepting
// both a raw code and the Bearer scheme.
func (h *BaseHandler) ExtractAuthorization(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authHeader) >= 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return authHeader
}
