package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const devJWTSecret = "societyvoice-dev-secret"

// Config holds everything the server reads from the environment.
type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	TokenTTL       time.Duration
	UploadDir      string
	MaxUploadBytes int64
	CORSOrigins    []string
	LogLevel       string
	GinMode        string
}

// Load reads a .env file when one exists and then builds the Config from the
// process environment.
func Load() (Config, error) {
	// Missing .env is fine, real deployments use the process environment
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:           valueOr(getenv("PORT"), "8080"),
		DatabaseURL:    getenv("DATABASE_URL"),
		JWTSecret:      getenv("JWT_SECRET"),
		TokenTTL:       72 * time.Hour,
		UploadDir:      valueOr(getenv("UPLOAD_DIR"), "uploads"),
		MaxUploadBytes: 5 * 1024 * 1024,
		CORSOrigins:    []string{"*"},
		LogLevel:       valueOr(getenv("LOG_LEVEL"), "info"),
		GinMode:        valueOr(getenv("GIN_MODE"), gin.DebugMode),
	}

	if cfg.DatabaseURL == "" && getenv("DB_HOST") != "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			getenv("DB_HOST"),
			valueOr(getenv("DB_PORT"), "5432"),
			getenv("DB_USER"),
			getenv("DB_PASSWORD"),
			getenv("DB_NAME"),
			valueOr(getenv("DB_SSLMODE"), "disable"),
		)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL or DB_HOST must be set")
	}

	if cfg.JWTSecret == "" {
		if cfg.GinMode == gin.ReleaseMode {
			return Config{}, errors.New("JWT_SECRET must be set in release mode")
		}
		cfg.JWTSecret = devJWTSecret
	}

	if raw := getenv("TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", raw)
		}
		cfg.TokenTTL = ttl
	}

	if raw := getenv("MAX_UPLOAD_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", raw)
		}
		cfg.MaxUploadBytes = n
	}

	if raw := getenv("CORS_ORIGINS"); raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}

	return cfg, nil
}

// UsesDevSecret reports whether the built-in development signing key is active.
func (c Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
