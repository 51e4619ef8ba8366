package loginhistory

import (
	"time"

	loginDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/loginhistory"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Login is one recorded sign-in of a user.
type Login struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	LoggedInAt time.Time `json:"loggedInAt"`
}

func FromDataModel(e *loginDatamodel.LoginEvent) Login {
	return Login{
		ID:         e.ID,
		Provider:   e.Provider,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		LoggedInAt: e.LoggedInAt,
	}
}

// ClampLimit applies the default and the upper bound to a requested page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
