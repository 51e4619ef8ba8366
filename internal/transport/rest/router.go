package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/account-hub/internal/app"
	"github.com/frahmantamala/account-hub/internal/auth"
	"github.com/frahmantamala/account-hub/internal/loginhistory"
	"github.com/frahmantamala/account-hub/internal/permission"
	"github.com/frahmantamala/account-hub/internal/storage"
	"github.com/frahmantamala/account-hub/internal/transport/middleware"
	"github.com/frahmantamala/account-hub/internal/transport/swagger"
	"github.com/frahmantamala/account-hub/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/spf13/afero"
)

// Handlers groups everything mounted under /api/v1. A nil handler leaves its
// routes unregistered.
type Handlers struct {
	Permission   *permission.Handler
	App          *app.Handler
	Auth         *auth.Handler
	User         *user.Handler
	LoginHistory *loginhistory.Handler
	Storage      *storage.Handler
}

type RouterConfig struct {
	DB             *sql.DB
	Files          afero.Fs
	AllowedOrigins []string
	OpenAPI        *swagger.Document
}

func RegisterAllRoutes(router *chi.Mux, cfg RouterConfig, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(cfg.DB, cfg.Files)

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if cfg.OpenAPI != nil {
		router.Method(http.MethodGet, "/openapi.yml", cfg.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Permission != nil {
			r.Route("/permission-manager", func(pr chi.Router) {
				pr.Get("/", h.Permission.List)
				pr.Post("/", h.Permission.Grant)
				pr.Patch("/", h.Permission.Replace)
				pr.Delete("/", h.Permission.Revoke)
			})
		}

		if h.App != nil {
			r.Post("/oauth/token", h.App.Token)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Get("/providers", h.Auth.Providers)
			ar.Get("/session", h.Auth.Session)
			ar.Post("/signout", h.Auth.SignOut)
			ar.Get("/signin/{provider}", h.Auth.SignIn)
			ar.Post("/callback/credentials", h.Auth.CredentialsCallback)
			ar.Get("/callback/{provider}", h.Auth.Callback)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.RequireSession)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}
			if h.LoginHistory != nil {
				pr.Get("/users/me/logins", h.LoginHistory.ListMine)
			}
			if h.Storage != nil {
				pr.Delete("/users/me/images", h.Storage.DeleteImage)
			}
		})
	})
}
