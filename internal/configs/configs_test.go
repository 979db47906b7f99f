package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONTENT_DEBOUNCE_MS", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DefaultDebounceWindow, cfg.DebounceWindow)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.DatabaseDSN)
}

func TestLoadConfigProductionRequiresSecrets(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigParsesDebounceWindow(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CONTENT_DEBOUNCE_MS", "250")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.DebounceWindow)
}

func TestLoadConfigRejectsInvalidDebounceWindow(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	for _, bad := range []string{"abc", "0", "-10"} {
		t.Setenv("CONTENT_DEBOUNCE_MS", bad)

		_, err := LoadConfig()
		assert.Error(t, err, "value %q", bad)
	}
}

func TestLoadConfigParsesAllowedOrigins(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CONTENT_DEBOUNCE_MS", "")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
}
