package auth

// CredentialsDTO is accepted as a form or as JSON by the credentials callback.
type CredentialsDTO struct {
	Username    string `json:"username" form:"username" validate:"required"`
	Password    string `json:"password" form:"password" validate:"required"`
	CallbackURL string `json:"callbackUrl" form:"callbackUrl"`
}

type ProviderResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SignInURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}
