package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// OAuthProvider is one external identity provider.
type OAuthProvider struct {
	ID          string
	Name        string
	OAuth       *oauth2.Config
	UserInfoURL string
	// EmailsURL is consulted when the profile carries no email (GitHub private emails).
	EmailsURL string
	decode    func(body []byte) (Identity, error)
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string) *OAuthProvider {
	return &OAuthProvider{
		ID:   ProviderGoogle,
		Name: "Google",
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		decode: func(body []byte) (Identity, error) {
			var p struct {
				Email   string `json:"email"`
				Name    string `json:"name"`
				Picture string `json:"picture"`
			}
			if err := json.Unmarshal(body, &p); err != nil {
				return Identity{}, err
			}
			return Identity{Email: p.Email, Name: p.Name, Image: p.Picture}, nil
		},
	}
}

func NewFacebookProvider(clientID, clientSecret, callbackURL string) *OAuthProvider {
	return &OAuthProvider{
		ID:   ProviderFacebook,
		Name: "Facebook",
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"email", "public_profile"},
		},
		UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email,picture",
		decode: func(body []byte) (Identity, error) {
			var p struct {
				Email   string `json:"email"`
				Name    string `json:"name"`
				Picture struct {
					Data struct {
						URL string `json:"url"`
					} `json:"data"`
				} `json:"picture"`
			}
			if err := json.Unmarshal(body, &p); err != nil {
				return Identity{}, err
			}
			return Identity{Email: p.Email, Name: p.Name, Image: p.Picture.Data.URL}, nil
		},
	}
}

func NewGitHubProvider(clientID, clientSecret, callbackURL string) *OAuthProvider {
	return &OAuthProvider{
		ID:   ProviderGitHub,
		Name: "GitHub",
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		UserInfoURL: "https://api.github.com/user",
		EmailsURL:   "https://api.github.com/user/emails",
		decode: func(body []byte) (Identity, error) {
			var p struct {
				Email     string `json:"email"`
				Name      string `json:"name"`
				Login     string `json:"login"`
				AvatarURL string `json:"avatar_url"`
			}
			if err := json.Unmarshal(body, &p); err != nil {
				return Identity{}, err
			}
			name := p.Name
			if name == "" {
				name = p.Login
			}
			return Identity{Email: p.Email, Name: name, Image: p.AvatarURL}, nil
		},
	}
}

// Exchange trades the callback code for a token and resolves the identity
// behind it.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := p.OAuth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: exchange code: %w", p.ID, err)
	}

	client := p.OAuth.Client(ctx, tok)
	body, err := getJSON(ctx, client, p.UserInfoURL)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: fetch profile: %w", p.ID, err)
	}

	identity, err := p.decode(body)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: decode profile: %w", p.ID, err)
	}
	identity.Provider = p.ID

	if identity.Email == "" && p.EmailsURL != "" {
		identity.Email, err = primaryEmail(ctx, client, p.EmailsURL)
		if err != nil {
			return Identity{}, fmt.Errorf("%s: fetch emails: %w", p.ID, err)
		}
	}
	identity.Email = strings.ToLower(identity.Email)
	return identity, nil
}

func primaryEmail(ctx context.Context, client *http.Client, url string) (string, error) {
	body, err := getJSON(ctx, client, url)
	if err != nil {
		return "", err
	}
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
