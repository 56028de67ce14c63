package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port       string
	BackendURL string
	JWTSecret  string
	UIOrigin   string
	SpoolDir   string
	PrintDelay time.Duration
}

func Load() *Config {
	return &Config{
		Port:       getEnv("PORT", "8090"),
		BackendURL: getEnv("BACKEND_URL", "http://localhost:5000/api"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		UIOrigin:   getEnv("UI_ORIGIN", "http://localhost:5173"),
		SpoolDir:   getEnv("PRINT_SPOOL_DIR", os.TempDir()),
		PrintDelay: time.Duration(getEnvInt("PRINT_DELAY_MS", 800)) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
