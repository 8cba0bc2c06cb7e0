package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	Env         string

	// Vault limits, fixed for the process lifetime.
	WithdrawalThreshold uint64
	BankCap             uint64
}

// LoadConfig reads .env (if present) and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		// Not a crash: production injects real env vars instead.
		slog.Warn("No .env file found, relying on system env variables")
	}

	return &Config{
		Port:                getEnv("PORT", "3000"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		Env:                 getEnv("ENV", "development"),
		WithdrawalThreshold: getEnvUint("WITHDRAWAL_THRESHOLD", 10_000),
		BankCap:             getEnvUint("BANK_CAP", 100_000_000),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		slog.Warn("Invalid uint env var, using fallback", "key", key, "value", value)
		return fallback
	}
	return n
}
