package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/account-hub/internal"
	"github.com/frahmantamala/account-hub/internal/app"
	appPostgres "github.com/frahmantamala/account-hub/internal/app/postgres"
	"github.com/frahmantamala/account-hub/internal/auth"
	"github.com/frahmantamala/account-hub/internal/core/events"
	"github.com/frahmantamala/account-hub/internal/loginhistory"
	loginPostgres "github.com/frahmantamala/account-hub/internal/loginhistory/postgres"
	"github.com/frahmantamala/account-hub/internal/permission"
	"github.com/frahmantamala/account-hub/internal/storage"
	"github.com/frahmantamala/account-hub/internal/transport"
	"github.com/frahmantamala/account-hub/internal/transport/rest"
	"github.com/frahmantamala/account-hub/internal/transport/swagger"
	"github.com/frahmantamala/account-hub/internal/user"
	userPostgres "github.com/frahmantamala/account-hub/internal/user/postgres"
	"github.com/frahmantamala/account-hub/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Bus    *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("Failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// login history writes still in flight
		if err := deps.Bus.Wait(ctx); err != nil {
			deps.Logger.Warn("Event handlers did not finish", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)

	doc, err := swagger.Load(context.Background(), cfg.Server.OpenAPIPath)
	if err != nil {
		return err
	}
	lg.Info("OpenAPI document loaded", "title", doc.Title, "paths", doc.Paths)

	userRepo := userPostgres.NewUserRepository(deps.Gorm)
	userService := user.NewService(userRepo, lg)

	codes := app.NewCodeSigner(cfg.Security.AuthorizationSecret, cfg.Security.AuthorizationCodeTTL)
	appService := app.NewService(appPostgres.NewAppRepository(deps.Gorm), codes, cfg.Security.BCryptCost, lg)

	permissionService := permission.NewService(appService, userRepo, deps.Bus, lg)

	loginService := loginhistory.NewService(loginPostgres.NewLoginHistoryRepository(deps.DB), lg)
	loginService.Subscribe(deps.Bus)
	deps.Bus.Subscribe(events.EventTypePermissionsChanged, func(ctx context.Context, e events.Event) error {
		changed, ok := e.(*events.PermissionsChangedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		lg.InfoContext(ctx, "audit: permissions changed",
			"user_id", changed.UserID, "app_id", changed.AppID, "operation", changed.Operation)
		return nil
	})

	bucket, err := storage.NewBucket(cfg.Storage.Root, cfg.Storage.Bucket, lg)
	if err != nil {
		return err
	}

	authConfig := auth.NewConfig(cfg.Auth, cfg.Server.BaseURL)
	pipeline := auth.NewPipeline(userService, deps.Bus, authConfig.Pages(), lg)

	rest.RegisterAllRoutes(deps.Router, rest.RouterConfig{
		DB:             deps.DB.DB,
		Files:          bucket.Fs(),
		AllowedOrigins: cfg.Server.Origins(),
		OpenAPI:        doc,
	}, rest.Handlers{
		Permission:   permission.NewHandler(base, permissionService),
		App:          app.NewHandler(base, appService),
		Auth:         auth.NewHandler(base, authConfig, pipeline, userService),
		User:         user.NewHandler(base, userService),
		LoginHistory: loginhistory.NewHandler(base, loginService),
		Storage:      storage.NewHandler(base, bucket),
	}, lg)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, gormDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	lg := logger.LoggerWrapper()
	return &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gormDB,
		Bus:    events.NewEventBus(lg),
		Router: chi.NewRouter(),
		Logger: lg,
	}, nil
}

// initDB opens one pgx pool and shares it between sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return dbConn, gormDB, nil
}
