package config

import (
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string

	JWTSecret   string
	JWTLifetime time.Duration
	CookieName  string

	BcryptCost          int
	MaxConcurrentHashes int64

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool

	FrontendURL     string
	FrontendProdURL string
}

func Load() *Config {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		host := getEnv("PSQL_HOST", "localhost")
		port := getEnv("PSQL_PORT", "5432")
		user := getEnv("PSQL_USER", "postgres")
		password := getEnv("PSQL_PASSWORD", "postgres")
		dbName := getEnv("PSQL_DB_NAME", "blogssom")

		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(user, password),
			Host:   host + ":" + port,
			Path:   dbName,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		databaseURL = u.String()
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTLifetime: time.Duration(getEnvInt("JWT_EXPIRES_IN_SECONDS", 86400)) * time.Second,
		CookieName:  getEnv("SESSION_COOKIE_NAME", "token"),

		BcryptCost:          getEnvInt("BCRYPT_COST", 12),
		MaxConcurrentHashes: int64(getEnvInt("MAX_CONCURRENT_HASHES", 4)),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "Blogssom <noreply@blogssom.dev>"),
		SMTPUseTLS:   getEnv("SMTP_USE_TLS", "false") == "true",

		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		FrontendProdURL: os.Getenv("FRONTEND_PROD_URL"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// FrontendBase is the base URL linked in outbound emails; production uses
// the deployed frontend when one is configured.
func (c *Config) FrontendBase() string {
	if c.IsProduction() && c.FrontendProdURL != "" {
		return c.FrontendProdURL
	}
	return c.FrontendURL
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
