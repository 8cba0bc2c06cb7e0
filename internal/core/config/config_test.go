package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliasdev/kipu-bank/internal/core/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := config.LoadConfig()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, uint64(10_000), cfg.WithdrawalThreshold)
	assert.Equal(t, uint64(100_000_000), cfg.BankCap)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("WITHDRAWAL_THRESHOLD", "250")
	t.Setenv("BANK_CAP", "90000")

	cfg := config.LoadConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, uint64(250), cfg.WithdrawalThreshold)
	assert.Equal(t, uint64(90000), cfg.BankCap)
}

func TestInvalidUintFallsBack(t *testing.T) {
	t.Setenv("BANK_CAP", "not-a-number")

	cfg := config.LoadConfig()
	assert.Equal(t, uint64(100_000_000), cfg.BankCap)
}
