package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/account-hub/internal"
	"github.com/frahmantamala/account-hub/internal/auth"
	userDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/user"
	"github.com/frahmantamala/account-hub/internal/transport"
	"github.com/frahmantamala/account-hub/internal/user"
	userPostgres "github.com/frahmantamala/account-hub/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const cookieName = "account-hub.session-token"

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var _ = Describe("Auth Handler Integration", func() {
	var (
		router    chi.Router
		handler   *auth.Handler
		publisher *recordingPublisher
		provider  *httptest.Server
		userinfo  string
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&userDatamodel.User{}, &userDatamodel.Email{}, &userDatamodel.PhoneNumber{})).To(Succeed())

		repo := userPostgres.NewUserRepository(db)
		u := fixtureUser()
		u.PasswordHash, err = user.HashPassword("s3cret", bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.Create(context.Background(), user.ToDataModel(u))).To(Succeed())
		users := user.NewService(repo, slogger)

		userinfo = `{"email":"Jane@Example.com","name":"Jane D","picture":"https://img.example.com/jane.png"}`
		mux := http.NewServeMux()
		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"Bearer","expires_in":3600}`))
		})
		mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer provider-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(userinfo))
		})
		provider = httptest.NewServer(mux)
		DeferCleanup(provider.Close)

		cfg := auth.NewConfig(internal.AuthConfig{
			Secret:        "0123456789abcdef0123456789abcdef",
			SessionMaxAge: time.Hour,
			CookieName:    cookieName,
			Pages: internal.PagesConfig{
				SignIn:  testPages.SignIn,
				SignOut: testPages.SignOut,
				Error:   testPages.Error,
				SignUp:  testPages.SignUp,
			},
		}, "http://localhost:8080")

		google := auth.NewGoogleProvider("client-id", "client-secret", cfg.CallbackURL(auth.ProviderGoogle))
		google.OAuth.Endpoint = oauth2.Endpoint{
			AuthURL:   provider.URL + "/authorize",
			TokenURL:  provider.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}
		google.UserInfoURL = provider.URL + "/userinfo"
		cfg = cfg.WithProviders(google)

		publisher = &recordingPublisher{}
		pipeline := auth.NewPipeline(users, publisher, cfg.Pages(), slogger)
		handler = auth.NewHandler(&transport.BaseHandler{Logger: slogger}, cfg, pipeline, users)

		router = chi.NewRouter()
		router.Get("/auth/signin/{provider}", handler.SignIn)
		router.Get("/auth/callback/{provider}", handler.Callback)
		router.Post("/auth/callback/credentials", handler.CredentialsCallback)
		router.Get("/auth/session", handler.Session)
		router.Get("/auth/providers", handler.Providers)
		router.Post("/auth/signout", handler.SignOut)
		router.With(handler.RequireSession).Get("/users/me", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(internal.UserIDFromContext(r.Context())))
		})
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	signInWithCredentials := func(username, password string) *httptest.ResponseRecorder {
		form := url.Values{"username": {username}, "password": {password}, "callbackUrl": {"/dashboard"}}
		req := httptest.NewRequest(http.MethodPost, "/auth/callback/credentials", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(req)
	}

	Describe("credentials", func() {
		It("issues a session cookie and redirects to the callback url", func() {
			w := signInWithCredentials("jane", "s3cret")

			Expect(w.Code).To(Equal(http.StatusFound))
			Expect(w.Header().Get("Location")).To(Equal("/dashboard"))
			cookie := findCookie(w, cookieName)
			Expect(cookie).NotTo(BeNil())
			Expect(cookie.HttpOnly).To(BeTrue())
			Expect(cookie.SameSite).To(Equal(http.SameSiteLaxMode))
		})

		It("accepts a JSON body", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/callback/credentials",
				strings.NewReader(`{"username":"jane@example.com","password":"s3cret"}`))
			req.Header.Set("Content-Type", "application/json")
			w := serve(req)

			Expect(w.Code).To(Equal(http.StatusFound))
			Expect(w.Header().Get("Location")).To(Equal("/"))
			Expect(findCookie(w, cookieName)).NotTo(BeNil())
		})

		It("redirects to the error page on a wrong password", func() {
			w := signInWithCredentials("jane", "wrong")

			Expect(w.Code).To(Equal(http.StatusFound))
			Expect(w.Header().Get("Location")).To(Equal("/error?error=CredentialsSignin"))
			Expect(findCookie(w, cookieName)).To(BeNil())
		})

		It("never redirects off-site", func() {
			form := url.Values{"username": {"jane"}, "password": {"s3cret"}, "callbackUrl": {"//evil.example.com"}}
			req := httptest.NewRequest(http.MethodPost, "/auth/callback/credentials", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			Expect(serve(req).Header().Get("Location")).To(Equal("/"))
		})
	})

	Describe("GET /auth/session", func() {
		It("returns an empty object without a cookie", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/auth/session", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(strings.TrimSpace(w.Body.String())).To(Equal("{}"))
		})

		It("returns an empty object for a tampered cookie", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
			req.AddCookie(&http.Cookie{Name: cookieName, Value: "not.a.jwt"})
			w := serve(req)

			Expect(strings.TrimSpace(w.Body.String())).To(Equal("{}"))
			Expect(findCookie(w, cookieName).MaxAge).To(BeNumerically("<", 0))
		})

		It("returns the projected user and records the sign-in", func() {
			cookie := findCookie(signInWithCredentials("jane", "s3cret"), cookieName)

			req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
			req.AddCookie(cookie)
			req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			w := serve(req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var session auth.Session
			Expect(json.NewDecoder(w.Body).Decode(&session)).To(Succeed())
			Expect(session.User).NotTo(BeNil())
			Expect(session.User.UserID).To(Equal("u1"))
			Expect(session.User.Email).To(Equal("jane@example.com"))
			Expect(session.User.PhoneNumber).To(Equal("+628123456"))
			Expect(session.User.DateOfBirth).To(Equal("1990-05-18"))
			Expect(session.User.Name).To(Equal("Jane Doe"))
			Expect(session.Expires).NotTo(BeNil())
			Expect(findCookie(w, cookieName)).NotTo(BeNil())

			Expect(publisher.Events()).To(HaveLen(1))
		})
	})

	Describe("RequireSession", func() {
		It("rejects requests without a session", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/users/me", nil))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(w.Body.String()).To(ContainSubstring(`"status":"error"`))
		})

		It("passes the session user id downstream", func() {
			cookie := findCookie(signInWithCredentials("jane", "s3cret"), cookieName)

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.AddCookie(cookie)
			w := serve(req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("u1"))
		})
	})

	Describe("OAuth", func() {
		startSignIn := func() (*http.Cookie, string) {
			w := serve(httptest.NewRequest(http.MethodGet, "/auth/signin/google", nil))
			Expect(w.Code).To(Equal(http.StatusFound))

			location, err := url.Parse(w.Header().Get("Location"))
			Expect(err).NotTo(HaveOccurred())
			Expect(location.Path).To(Equal("/authorize"))
			Expect(location.Query().Get("redirect_uri")).To(Equal("http://localhost:8080/api/v1/auth/callback/google"))

			state := findCookie(w, cookieName+".state")
			Expect(state).NotTo(BeNil())
			Expect(location.Query().Get("state")).To(Equal(state.Value))
			return state, state.Value
		}

		callback := func(stateCookie *http.Cookie, state string) *httptest.ResponseRecorder {
			q := url.Values{"code": {"provider-code"}, "state": {state}}
			req := httptest.NewRequest(http.MethodGet, "/auth/callback/google?"+q.Encode(), nil)
			req.AddCookie(stateCookie)
			return serve(req)
		}

		It("signs in a known user", func() {
			stateCookie, state := startSignIn()
			w := callback(stateCookie, state)

			Expect(w.Code).To(Equal(http.StatusFound))
			Expect(w.Header().Get("Location")).To(Equal("/"))
			Expect(findCookie(w, cookieName)).NotTo(BeNil())
		})

		It("sends unknown users to sign-up", func() {
			userinfo = `{"email":"stranger@example.com","name":"Stranger"}`
			stateCookie, state := startSignIn()
			w := callback(stateCookie, state)

			Expect(w.Header().Get("Location")).To(Equal("/sign-up"))
			Expect(findCookie(w, cookieName)).To(BeNil())
		})

		It("rejects a mismatched state", func() {
			stateCookie, _ := startSignIn()
			w := callback(stateCookie, "forged")

			Expect(w.Header().Get("Location")).To(Equal("/error?error=OAuthCallback"))
		})

		It("rejects unknown providers", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/auth/signin/myspace", nil))
			Expect(w.Header().Get("Location")).To(Equal("/error?error=Configuration"))
		})
	})

	It("lists the configured providers", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/auth/providers", nil))

		var providers map[string]auth.ProviderResponse
		Expect(json.NewDecoder(w.Body).Decode(&providers)).To(Succeed())
		Expect(providers).To(HaveKey("google"))
		Expect(providers).To(HaveKey("credentials"))
		Expect(providers).NotTo(HaveKey("github"))
	})

	It("clears the cookie on sign-out", func() {
		w := serve(httptest.NewRequest(http.MethodPost, "/auth/signout", nil))

		Expect(w.Code).To(Equal(http.StatusSeeOther))
		Expect(w.Header().Get("Location")).To(Equal("/auth/profile/logout"))
		Expect(findCookie(w, cookieName).MaxAge).To(BeNumerically("<", 0))
	})
})
