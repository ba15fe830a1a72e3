package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "TOGGLE_RECEIPT_WINDOW", "MAX_TX_ATTEMPTS", "MONGO_DATABASE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "socialmedia", cfg.MongoDatabase)
	assert.Equal(t, 2*time.Minute, cfg.ToggleReceiptWindow)
	assert.Equal(t, 5, cfg.MaxTxAttempts)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("TOGGLE_RECEIPT_WINDOW", "45s")
	t.Setenv("MAX_TX_ATTEMPTS", "3")
	t.Setenv("JWT_TTL", "not-a-duration")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 45*time.Second, cfg.ToggleReceiptWindow)
	assert.Equal(t, 3, cfg.MaxTxAttempts)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
}
