package auth

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/account-hub/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
	ProviderFacebook    = "facebook"
	ProviderGitHub      = "github"
)

// Identity is what a provider hands over after a successful sign-in.
type Identity struct {
	Provider string
	Email    string
	Username string
	Name     string
	Image    string
}

// Profile is the user projection carried by both the token and the session.
type Profile struct {
	UserID              string `json:"id,omitempty"`
	Email               string `json:"email,omitempty"`
	EmailVerified       bool   `json:"emailVerified,omitempty"`
	PhoneNumber         string `json:"phoneNumber,omitempty"`
	PhoneNumberVerified bool   `json:"phoneNumberVerified,omitempty"`
	Username            string `json:"username,omitempty"`
	FirstName           string `json:"firstName,omitempty"`
	LastName            string `json:"lastName,omitempty"`
	Gender              string `json:"gender,omitempty"`
	DateOfBirth         string `json:"dateOfBirth,omitempty"`
	IsEnterpriseUser    bool   `json:"isEnterpriseUser,omitempty"`
	Country             string `json:"country,omitempty"`
}

// Token is the content of the session cookie.
type Token struct {
	Profile
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

type SessionUser struct {
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Profile
}

// Session is the JSON document served by the session endpoint.
type Session struct {
	User    *SessionUser `json:"user,omitempty"`
	Expires *time.Time   `json:"expires,omitempty"`
}

// ClientInfo describes the HTTP client a session is served to.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type clientKey struct{}

func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientKey{}, info)
}

func ClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientKey{}).(ClientInfo)
	return info
}

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrInvalidState   = errors.New("invalid oauth state")
)

// TimestampToDate renders a stored date of birth as YYYY-MM-DD in UTC.
func TimestampToDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

// ProjectUser copies the session-relevant fields of u.
func ProjectUser(u *user.User) Profile {
	p := Profile{
		UserID:           u.ID,
		Username:         u.Username,
		FirstName:        u.PersonalData.FirstName,
		LastName:         u.PersonalData.LastName,
		Gender:           u.PersonalData.Gender,
		DateOfBirth:      TimestampToDate(u.PersonalData.DateOfBirth),
		IsEnterpriseUser: u.IsEnterpriseUser,
		Country:          u.PersonalData.Address.Permanent.Country,
	}
	if email, ok := u.PrimaryEmail(); ok {
		p.Email = email.Address
		p.EmailVerified = email.Verified
	}
	if phone, ok := u.FirstPhoneNumber(); ok {
		p.PhoneNumber = phone.String()
		p.PhoneNumberVerified = phone.Verified
	}
	return p
}
