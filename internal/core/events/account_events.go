package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserSignedIn       = "user.signed_in"
	EventTypePermissionsChanged = "permissions.changed"
)

// UserSignedInEvent is raised each time a session is materialized for a known user.
type UserSignedInEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	Provider  string `json:"provider"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

func NewUserSignedInEvent(userID, provider, ipAddress, userAgent string) *UserSignedInEvent {
	return &UserSignedInEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeUserSignedIn,
			Timestamp: time.Now().UTC(),
			Data: map[string]any{
				"user_id":  userID,
				"provider": provider,
			},
		},
		UserID:    userID,
		Provider:  provider,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

type PermissionsChangedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	AppID     string `json:"app_id"`
	Operation string `json:"operation"`
}

func NewPermissionsChangedEvent(userID, appID, operation string) *PermissionsChangedEvent {
	return &PermissionsChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypePermissionsChanged,
			Timestamp: time.Now().UTC(),
			Data: map[string]any{
				"user_id":   userID,
				"app_id":    appID,
				"operation": operation,
			},
		},
		UserID:    userID,
		AppID:     appID,
		Operation: operation,
	}
}
