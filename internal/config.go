package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source" validate:"required"`
}

type SecurityConfig struct {
	// AuthorizationSecret signs the authorization codes handed to applications.
	AuthorizationSecret  string        `mapstructure:"authorization_secret" validate:"required,min=32"`
	AuthorizationCodeTTL time.Duration `mapstructure:"authorization_code_ttl"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"min=0,max=15"`
}

type AuthConfig struct {
	Secret        string         `mapstructure:"secret" validate:"required,min=32"`
	SessionMaxAge time.Duration  `mapstructure:"session_max_age"`
	CookieName    string         `mapstructure:"cookie_name"`
	SecureCookie  bool           `mapstructure:"secure_cookie"`
	Pages         PagesConfig    `mapstructure:"pages"`
	Google        ProviderConfig `mapstructure:"google"`
	Facebook      ProviderConfig `mapstructure:"facebook"`
	GitHub        ProviderConfig `mapstructure:"github"`
}

type PagesConfig struct {
	SignIn  string `mapstructure:"sign_in"`
	SignOut string `mapstructure:"sign_out"`
	Error   string `mapstructure:"error"`
	SignUp  string `mapstructure:"sign_up"`
}

type ProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret" validate:"required_with=ClientID"`
}

func (p ProviderConfig) Enabled() bool {
	return p.ClientID != ""
}

type StorageConfig struct {
	Root   string `mapstructure:"root"`
	Bucket string `mapstructure:"bucket"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

// ----------------- DEFAULTS -----------------

// ApplyDefaults fills in every optional setting left empty.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.OpenAPIPath == "" {
		c.Server.OpenAPIPath = "./api/openapi.yml"
	}
	if c.Security.AuthorizationCodeTTL == 0 {
		c.Security.AuthorizationCodeTTL = time.Hour
	}
	if c.Auth.SessionMaxAge == 0 {
		c.Auth.SessionMaxAge = 30 * 24 * time.Hour
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "account-hub.session-token"
	}
	if c.Auth.Pages.SignIn == "" {
		c.Auth.Pages.SignIn = "/sign-in"
	}
	if c.Auth.Pages.SignOut == "" {
		c.Auth.Pages.SignOut = "/auth/profile/logout"
	}
	if c.Auth.Pages.Error == "" {
		c.Auth.Pages.Error = "/error"
	}
	if c.Auth.Pages.SignUp == "" {
		c.Auth.Pages.SignUp = "/sign-up"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "./data/storage"
	}
}

// ----------------- ENV -----------------

// LoadConfigFromEnv builds the configuration from environment variables only,
// for container deployments without a config file.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:           getEnvAsInt("PORT", 8080),
			BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
			OpenAPIPath:    getEnv("OPENAPI_PATH", ""),
			ReadTimeout:    getEnvAsDuration("READ_TIMEOUT", 0),
			WriteTimeout:   getEnvAsDuration("WRITE_TIMEOUT", 0),
			IdleTimeout:    getEnvAsDuration("IDLE_TIMEOUT", 0),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			AuthorizationSecret:  getEnv("AUTHORIZATION_SECRET", ""),
			AuthorizationCodeTTL: getEnvAsDuration("AUTHORIZATION_CODE_TTL", 0),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 0),
		},
		Auth: AuthConfig{
			Secret:        getEnv("AUTH_SECRET", ""),
			SessionMaxAge: getEnvAsDuration("AUTH_SESSION_MAX_AGE", 0),
			CookieName:    getEnv("AUTH_COOKIE_NAME", ""),
			SecureCookie:  getEnv("AUTH_SECURE_COOKIE", "true") == "true",
			Google: ProviderConfig{
				ClientID:     getEnv("AUTH_GOOGLE_ID", ""),
				ClientSecret: getEnv("AUTH_GOOGLE_SECRET", ""),
			},
			Facebook: ProviderConfig{
				ClientID:     getEnv("AUTH_FACEBOOK_ID", ""),
				ClientSecret: getEnv("AUTH_FACEBOOK_SECRET", ""),
			},
			GitHub: ProviderConfig{
				ClientID:     getEnv("AUTH_GITHUB_ID", ""),
				ClientSecret: getEnv("AUTH_GITHUB_SECRET", ""),
			},
		},
		Storage: StorageConfig{
			Root:   getEnv("STORAGE_ROOT", ""),
			Bucket: getEnv("STORAGE_BUCKET", ""),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

// Validate runs the cross-field checks that struct tags cannot express. Tag
// validation is done by the caller through the shared validator.
func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("auth config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *AuthConfig) Validate() error {
	for _, page := range []string{c.Pages.SignIn, c.Pages.SignOut, c.Pages.Error, c.Pages.SignUp} {
		if page != "" && !strings.HasPrefix(page, "/") {
			return fmt.Errorf("page path %q must start with /", page)
		}
	}
	if c.SessionMaxAge < time.Minute {
		return errors.New("session_max_age must be at least 1m")
	}
	return nil
}
