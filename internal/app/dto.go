package app

import "time"

type TokenRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
}

type TokenResponse struct {
	AuthorizationCode string    `json:"authorization_code"`
	ExpiresAt         time.Time `json:"expires_at"`
}
