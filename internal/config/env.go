package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env.local and .env into the process environment.
// godotenv never overrides variables that are already set, so process
// variables win over .env.local, which wins over .env.
func loadEnvFiles() {
	for _, path := range []string{".env.local", ".env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
}
