package app

import (
	"errors"
	"time"

	appDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/app"
)

// Application is a client registered to manage permissions of its own users.
type Application struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound             = errors.New("application not found")
	ErrInvalidAuthorization = errors.New("invalid authorization code")
	ErrInvalidClient        = errors.New("invalid client credentials")
)

func FromDataModel(a *appDatamodel.Application) *Application {
	return &Application{
		ID:        a.ID,
		Name:      a.Name,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}
