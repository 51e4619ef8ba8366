package auth

import (
	"slices"
	"strings"
	"time"

	"github.com/frahmantamala/account-hub/internal"
)

type Pages struct {
	SignIn  string
	SignOut string
	Error   string
	SignUp  string
}

// Config is built once at startup and never modified afterwards.
type Config struct {
	secret       string
	maxAge       time.Duration
	cookieName   string
	secureCookie bool
	pages        Pages
	baseURL      string
	providers    []*OAuthProvider
}

// NewConfig builds the auth configuration, enabling every OAuth provider
// that has a client id.
func NewConfig(cfg internal.AuthConfig, baseURL string) *Config {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Config{
		secret:       cfg.Secret,
		maxAge:       cfg.SessionMaxAge,
		cookieName:   cfg.CookieName,
		secureCookie: cfg.SecureCookie,
		pages: Pages{
			SignIn:  cfg.Pages.SignIn,
			SignOut: cfg.Pages.SignOut,
			Error:   cfg.Pages.Error,
			SignUp:  cfg.Pages.SignUp,
		},
		baseURL: baseURL,
	}

	var providers []*OAuthProvider
	if cfg.Google.Enabled() {
		providers = append(providers, NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, c.CallbackURL(ProviderGoogle)))
	}
	if cfg.Facebook.Enabled() {
		providers = append(providers, NewFacebookProvider(cfg.Facebook.ClientID, cfg.Facebook.ClientSecret, c.CallbackURL(ProviderFacebook)))
	}
	if cfg.GitHub.Enabled() {
		providers = append(providers, NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, c.CallbackURL(ProviderGitHub)))
	}
	return c.WithProviders(providers...)
}

// WithProviders returns a copy of c with extra OAuth providers.
func (c *Config) WithProviders(providers ...*OAuthProvider) *Config {
	cp := *c
	cp.providers = append(slices.Clone(c.providers), providers...)
	return &cp
}

func (c *Config) Secret() string               { return c.secret }
func (c *Config) SessionMaxAge() time.Duration { return c.maxAge }
func (c *Config) CookieName() string           { return c.cookieName }
func (c *Config) SecureCookie() bool           { return c.secureCookie }
func (c *Config) Pages() Pages                 { return c.pages }

func (c *Config) StateCookieName() string {
	return c.cookieName + ".state"
}

func (c *Config) CallbackURL(provider string) string {
	return c.baseURL + "/api/v1/auth/callback/" + provider
}

func (c *Config) SignInURL(provider string) string {
	return c.baseURL + "/api/v1/auth/signin/" + provider
}

func (c *Config) Provider(id string) (*OAuthProvider, bool) {
	i := slices.IndexFunc(c.providers, func(p *OAuthProvider) bool { return p.ID == id })
	if i == -1 {
		return nil, false
	}
	return c.providers[i], true
}

// Providers lists every sign-in method, the credentials provider included.
func (c *Config) Providers() []ProviderResponse {
	out := make([]ProviderResponse, 0, len(c.providers)+1)
	for _, p := range c.providers {
		out = append(out, ProviderResponse{
			ID:          p.ID,
			Name:        p.Name,
			Type:        "oauth",
			SignInURL:   c.SignInURL(p.ID),
			CallbackURL: c.CallbackURL(p.ID),
		})
	}
	out = append(out, ProviderResponse{
		ID:          ProviderCredentials,
		Name:        "Credentials",
		Type:        "credentials",
		SignInURL:   c.SignInURL(ProviderCredentials),
		CallbackURL: c.CallbackURL(ProviderCredentials),
	})
	return out
}
