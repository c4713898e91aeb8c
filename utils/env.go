package utils

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given .env files (or ./.env). Variables
// already present in the environment win.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("no .env file loaded, continuing", "error", err)
	}
}

// Getenv returns the trimmed value of key, or fallback when it is unset or blank.
func Getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
