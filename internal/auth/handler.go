package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/account-hub/internal"
	"github.com/frahmantamala/account-hub/internal/core/common/validation"
	"github.com/frahmantamala/account-hub/internal/transport"
	"github.com/frahmantamala/account-hub/internal/user"
	"github.com/frahmantamala/account-hub/pkg/logger"
	"github.com/go-chi/chi"
)

const stateCookieTTL = 10 * time.Minute

type CredentialsValidator interface {
	ValidateCredentials(ctx context.Context, username, password string) (*user.User, error)
}

type Handler struct {
	*transport.BaseHandler
	Config      *Config
	Pipeline    *Pipeline
	Codec       *SessionCodec
	Credentials CredentialsValidator
}

func NewHandler(baseHandler *transport.BaseHandler, cfg *Config, pipeline *Pipeline, credentials CredentialsValidator) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Config:      cfg,
		Pipeline:    pipeline,
		Codec:       NewSessionCodec(cfg.Secret(), cfg.SessionMaxAge()),
		Credentials: credentials,
	}
}

// SignIn handles GET /auth/signin/{provider}
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.Config.Provider(chi.URLParam(r, "provider"))
	if !ok {
		h.redirectError(w, r, "Configuration")
		return
	}

	state, err := GenerateRandomToken()
	if err != nil {
		h.Logger.Error("SignIn: failed to generate state", "error", err)
		h.redirectError(w, r, "Configuration")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.Config.StateCookieName(),
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.Config.SecureCookie(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, provider.OAuth.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /auth/callback/{provider}
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.Config.Provider(chi.URLParam(r, "provider"))
	if !ok {
		h.redirectError(w, r, "Configuration")
		return
	}

	query := r.URL.Query()
	if err := h.checkState(w, r, query.Get("state")); err != nil {
		h.Logger.Warn("Callback: state mismatch", "provider", provider.ID)
		h.redirectError(w, r, "OAuthCallback")
		return
	}
	if query.Get("error") != "" || query.Get("code") == "" {
		h.Logger.Warn("Callback: provider returned no code", "provider", provider.ID, "error", query.Get("error"))
		h.redirectError(w, r, "OAuthCallback")
		return
	}

	identity, err := provider.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		h.Logger.Error("Callback: oauth exchange failed", "provider", provider.ID, "error", err)
		h.redirectError(w, r, "OAuthCallback")
		return
	}

	h.complete(w, r, identity, "")
}

// CredentialsCallback handles POST /auth/callback/credentials
func (h *Handler) CredentialsCallback(w http.ResponseWriter, r *http.Request) {
	var dto CredentialsDTO
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.redirectError(w, r, "CredentialsSignin")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.redirectError(w, r, "CredentialsSignin")
			return
		}
		dto = CredentialsDTO{
			Username:    r.PostForm.Get("username"),
			Password:    r.PostForm.Get("password"),
			CallbackURL: r.PostForm.Get("callbackUrl"),
		}
	}
	if appErr := validation.Request(dto); appErr != nil {
		h.redirectError(w, r, "CredentialsSignin")
		return
	}

	u, err := h.Credentials.ValidateCredentials(r.Context(), dto.Username, dto.Password)
	if err != nil {
		if !errors.Is(err, user.ErrInvalidCredentials) {
			h.Logger.Error("CredentialsCallback: credential check failed", "error", err)
		}
		h.redirectError(w, r, "CredentialsSignin")
		return
	}

	identity := Identity{
		Provider: ProviderCredentials,
		Username: u.Username,
		Name:     strings.TrimSpace(u.PersonalData.FirstName + " " + u.PersonalData.LastName),
	}
	if email, ok := u.PrimaryEmail(); ok {
		identity.Email = email.Address
	}
	h.complete(w, r, identity, dto.CallbackURL)
}

// complete runs the callbacks for a provider-confirmed identity, issues the
// session cookie and redirects back into the application.
func (h *Handler) complete(w http.ResponseWriter, r *http.Request, identity Identity, callbackURL string) {
	ctx := r.Context()

	redirect, err := h.Pipeline.SignIn(ctx, identity)
	if err != nil {
		h.Logger.Error("sign-in callback failed", "provider", identity.Provider, "error", err)
		h.redirectError(w, r, "AccessDenied")
		return
	}
	if redirect != "" {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}

	tok := Token{
		Profile:  Profile{Email: identity.Email, Username: identity.Username},
		Name:     identity.Name,
		Picture:  identity.Image,
		Provider: identity.Provider,
	}

	tok, err = h.Pipeline.JWT(ctx, tok)
	if err != nil {
		h.Logger.Error("jwt callback failed", "provider", identity.Provider, "error", err)
		h.redirectError(w, r, "AccessDenied")
		return
	}

	if err := h.writeSession(w, tok); err != nil {
		h.Logger.Error("failed to write session cookie", "error", err)
		h.redirectError(w, r, "Configuration")
		return
	}

	h.Logger.Info("user signed in", "user_id", tok.UserID, "provider", identity.Provider)
	http.Redirect(w, r, safeRedirect(callbackURL), http.StatusFound)
}

// Session handles GET /auth/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	tok, ok := h.readSession(w, r)
	if !ok {
		h.WriteJSON(w, http.StatusOK, struct{}{})
		return
	}

	ctx := WithClientInfo(r.Context(), ClientInfo{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})

	tok, err := h.Pipeline.JWT(ctx, tok)
	if err != nil {
		h.Logger.Error("Session: jwt callback failed", "error", err)
		h.WriteAppError(w, internal.NewInternalError(err))
		return
	}

	expires := time.Now().Add(h.Config.SessionMaxAge()).UTC()
	if err := h.writeSession(w, tok); err != nil {
		h.Logger.Error("Session: failed to refresh cookie", "error", err)
		h.WriteAppError(w, internal.NewInternalError(err))
		return
	}

	session := h.Pipeline.Session(ctx, Session{
		User:    &SessionUser{Name: tok.Name, Image: tok.Picture},
		Expires: &expires,
	}, tok)

	h.WriteJSON(w, http.StatusOK, session)
}

// Providers handles GET /auth/providers
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]ProviderResponse)
	for _, p := range h.Config.Providers() {
		out[p.ID] = p
	}
	h.WriteJSON(w, http.StatusOK, out)
}

// SignOut handles POST /auth/signout
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, h.Config.CookieName())
	http.Redirect(w, r, h.Config.Pages().SignOut, http.StatusSeeOther)
}

// RequireSession rejects requests without a valid session and puts the
// session user id into the request context.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := h.readSession(w, r)
		if !ok || tok.UserID == "" {
			h.WriteAppError(w, internal.ErrUnauthenticated)
			return
		}

		ctx := internal.ContextWithUserID(r.Context(), tok.UserID)
		ctx = logger.With(ctx, "user_id", tok.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) readSession(w http.ResponseWriter, r *http.Request) (Token, bool) {
	cookie, err := r.Cookie(h.Config.CookieName())
	if err != nil || cookie.Value == "" {
		return Token{}, false
	}

	tok, err := h.Codec.Decode(cookie.Value)
	if err != nil {
		h.Logger.Debug("discarding invalid session cookie", "error", err)
		h.clearCookie(w, h.Config.CookieName())
		return Token{}, false
	}
	return tok, true
}

func (h *Handler) writeSession(w http.ResponseWriter, tok Token) error {
	signed, expiresAt, err := h.Codec.Encode(tok)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.Config.CookieName(),
		Value:    signed,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.Config.SecureCookie(),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Config.SecureCookie(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) checkState(w http.ResponseWriter, r *http.Request, state string) error {
	cookie, err := r.Cookie(h.Config.StateCookieName())
	h.clearCookie(w, h.Config.StateCookieName())
	if err != nil || state == "" || cookie.Value != state {
		return ErrInvalidState
	}
	return nil
}

func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	target := h.Config.Pages().Error + "?" + url.Values{"error": {code}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

// safeRedirect only follows same-site relative paths.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	return target
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
