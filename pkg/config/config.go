package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full application configuration, loaded from the environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	OAuth    OAuthConfig
	Notifx   NotifxConfig
	Storage  StorageConfig
	Jobx     JobxConfig
}

// ServerConfig configures the HTTP server and its outer surfaces.
type ServerConfig struct {
	Port        string
	CORSOrigins string
	ClientURL   string
	Debug       bool
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns host:port for the Redis client.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig groups everything the identity core needs.
type AuthConfig struct {
	JWT      JWTConfig
	Password PasswordConfig
	Session  SessionConfig
	Cookies  CookieConfig
}

// JWTConfig configures the token issuer.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// PasswordConfig configures the credential verifier.
type PasswordConfig struct {
	BcryptCost int
	MinLength  int
}

// SessionConfig configures the server-side session store.
type SessionConfig struct {
	TTL time.Duration
}

// CookieConfig names the client-visible credentials so logout can clear
// every one of them.
type CookieConfig struct {
	TokenName   string
	SessionName string
	Secure      bool
	Domain      string
}

// OAuthConfig configures federated login.
type OAuthConfig struct {
	Google GoogleOAuthConfig
	State  StateConfig
}

// GoogleOAuthConfig configures the Google provider.
type GoogleOAuthConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// StateConfig configures the OAuth state manager.
type StateConfig struct {
	Type string // "redis" or "memory"
	TTL  time.Duration
}

// NotifxConfig configures the notification system.
type NotifxConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	AWSRegion   string
}

// StorageConfig configures avatar file storage.
type StorageConfig struct {
	Mode      string // "local" or "s3"
	LocalDir  string
	AWSBucket string
	AWSRegion string
}

// JobxConfig configures the background job queue.
type JobxConfig struct {
	Queue       string
	Concurrency int
	RetryDelay  time.Duration
	MaxRetries  int
	ResultTTL   time.Duration
}

// Load reads the full configuration from the environment.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			ClientURL:   getEnv("CLIENT_URL", "http://localhost:3000"),
			Debug:       getEnvBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "academy"),
			Password:        getEnv("DB_PASSWORD", "academy"),
			Name:            getEnv("DB_NAME", "academy"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWT: JWTConfig{
				Secret: getEnv("JWT_SECRET", ""),
				TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
				Issuer: getEnv("JWT_ISSUER", "academy"),
			},
			Password: PasswordConfig{
				BcryptCost: getEnvInt("BCRYPT_COST", 12),
				MinLength:  getEnvInt("PASSWORD_MIN_LENGTH", 6),
			},
			Session: SessionConfig{
				TTL: getEnvDuration("SESSION_TTL", 24*time.Hour),
			},
			Cookies: CookieConfig{
				TokenName:   getEnv("COOKIE_TOKEN_NAME", "token"),
				SessionName: getEnv("COOKIE_SESSION_NAME", "sid"),
				Secure:      getEnvBool("COOKIE_SECURE", false),
				Domain:      getEnv("COOKIE_DOMAIN", ""),
			},
		},
		OAuth: OAuthConfig{
			Google: GoogleOAuthConfig{
				Enabled:      getEnvBool("GOOGLE_OAUTH_ENABLED", false),
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
				RedirectURL:  getEnv("GOOGLE_CALLBACK_URL", ""),
			},
			State: StateConfig{
				Type: getEnv("OAUTH_STATE_MANAGER", "redis"),
				TTL:  getEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
			},
		},
		Notifx: NotifxConfig{
			Provider:    getEnv("NOTIFX_PROVIDER", "console"),
			FromAddress: getEnv("NOTIFX_FROM_ADDRESS", "noreply@academy.dev"),
			FromName:    getEnv("NOTIFX_FROM_NAME", "Academy"),
			AWSRegion:   getEnv("NOTIFX_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
		},
		Storage: StorageConfig{
			Mode:      getEnv("STORAGE_MODE", "local"),
			LocalDir:  getEnv("UPLOAD_DIR", "./uploads"),
			AWSBucket: getEnv("AWS_BUCKET", "academy-uploads"),
			AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		},
		Jobx: JobxConfig{
			Queue:       getEnv("JOBX_QUEUE", "notifications"),
			Concurrency: getEnvInt("JOBX_CONCURRENCY", 4),
			RetryDelay:  getEnvDuration("JOBX_RETRY_DELAY", 30*time.Second),
			MaxRetries:  getEnvInt("JOBX_MAX_RETRIES", 3),
			ResultTTL:   getEnvDuration("JOBX_RESULT_TTL", 24*time.Hour),
		},
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
