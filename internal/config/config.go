package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool
	SessionTTL       time.Duration

	OTLPEndpoint string

	OAuth      OAuthConfig
	Accounting AccountingConfig
	Session    SessionStoreConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// OAuthConfig describes the accounting platform's authorization server.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Environment  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
}

type AccountingConfig struct {
	BaseURL      string
	MinorVersion string
	Timeout      time.Duration
}

// SessionStoreConfig selects where session credentials live.
// Store is one of redis, postgres, mysql, sqlite or memory.
type SessionStoreConfig struct {
	Store         string
	WriteTimeout  time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"

	SandboxBaseURL    = "https://sandbox-quickbooks.api.intuit.com"
	ProductionBaseURL = "https://quickbooks.api.intuit.com"

	DefaultAuthURL  = "https://appcenter.intuit.com/connect/oauth2"
	DefaultTokenURL = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	DefaultScope    = "com.intuit.quickbooks.accounting"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	oauthEnv := normalizeOAuthEnvironment(getenv("OAUTH_ENVIRONMENT", EnvironmentSandbox))

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "invoicedesk"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		SessionTTL:       time.Duration(getenvInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),
		OAuth: OAuthConfig{
			ClientID:     strings.TrimSpace(getenv("OAUTH_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getenv("OAUTH_CLIENT_SECRET", "")),
			RedirectURI:  strings.TrimSpace(getenv("OAUTH_REDIRECT_URI", "http://localhost:8080/oauth/callback")),
			Environment:  oauthEnv,
			Scopes:       splitList(getenv("OAUTH_SCOPES", DefaultScope)),
			AuthURL:      getenv("OAUTH_AUTH_URL", DefaultAuthURL),
			TokenURL:     getenv("OAUTH_TOKEN_URL", DefaultTokenURL),
		},
		Accounting: AccountingConfig{
			BaseURL:      getenv("ACCOUNTING_BASE_URL", BaseURLFor(oauthEnv)),
			MinorVersion: getenv("ACCOUNTING_MINOR_VERSION", "75"),
			Timeout:      time.Duration(getenvInt("ACCOUNTING_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Session: SessionStoreConfig{
			Store:         strings.ToLower(getenv("SESSION_STORE", "memory")),
			WriteTimeout:  time.Duration(getenvInt("SESSION_WRITE_TIMEOUT_SECONDS", 5)) * time.Second,
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			KeyPrefix:     getenv("SESSION_KEY_PREFIX", "invoicedesk:session:"),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "invoicedesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
	}

	// A SQL session store implies the database type.
	switch cfg.Session.Store {
	case "postgres", "mysql", "sqlite":
		cfg.DBType = cfg.Session.Store
	}

	return cfg
}

// BaseURLFor returns the accounting API host for an OAuth environment.
func BaseURLFor(environment string) string {
	if normalizeOAuthEnvironment(environment) == EnvironmentProduction {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

func normalizeOAuthEnvironment(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), EnvironmentProduction) {
		return EnvironmentProduction
	}
	return EnvironmentSandbox
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
