// Package config loads process configuration from the environment,
// the way the teacher's go.mod already pulls in godotenv for local
// development even though the distilled teacher snippet never called
// it — wired here for real.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the environment-derived settings the server needs at
// startup.
type Config struct {
	Port         string
	DatabaseURL  string
	JWTSecret    string
	NoauthSecret string
}

// Load reads a .env file if present (missing files are not an error,
// matching godotenv.Load's own behavior in dev-only setups) and
// returns the resolved Config, applying defaults for local
// development.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:         getenv("PORT", "8080"),
		DatabaseURL:  getenv("DATABASE_URL", "postgres://localhost:5432/tourney?sslmode=disable"),
		JWTSecret:    getenv("JWT_SECRET", "dev-jwt-secret-change-me"),
		NoauthSecret: getenv("NOAUTH_SECRET", "dev-noauth-secret-change-me"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
