// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; see Load for the names and defaults.
type Config struct {
	Env    string // application environment (dev, test, prod)
	Port   string // HTTP port to listen on
	DBUser string
	DBPass string // optional
	DBHost string
	DBPort string
	DBName string

	JWTSecret  string        // HMAC secret used to sign session tokens
	SessionTTL time.Duration // lifetime of an issued session token
	BcryptCost int           // bcrypt cost for password hashing

	AdminEmail          string // identity provisioned by the seed operation
	AdminTempPassword   string // empty means a random one is generated at seed time
	SeedEndpointEnabled bool

	AuditConsumerEnabled bool
	LogLevel             string
}

// Load reads configuration values from the environment. In dev a local .env
// file is loaded first. Required variables are enforced by must() and a
// missing value stops the process.
func Load() Config {
	if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
		_ = godotenv.Load()
	}
	return Config{
		Env:    must("APP_ENV"),
		Port:   envStr("APP_PORT", "8080"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: envStr("DB_PORT", "3306"),
		DBName: must("DB_NAME"),

		JWTSecret:  must("JWT_SECRET"),
		SessionTTL: envDur("SESSION_TTL", 24*time.Hour),
		BcryptCost: envInt("BCRYPT_COST", 10),

		AdminEmail:          envStr("ADMIN_EMAIL", "admin@example.com"),
		AdminTempPassword:   os.Getenv("ADMIN_TEMP_PASSWORD"),
		SeedEndpointEnabled: envBool("SEED_ENDPOINT_ENABLED", true),

		AuditConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", false),
		LogLevel:             envStr("LOG_LEVEL", "info"),
	}
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, "dev")
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
