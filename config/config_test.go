package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "server", cfg.Spin.DrawMode)
	assert.Equal(t, 20, cfg.Code.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	t.Setenv("SPIN_DRAW_MODE", "CLIENT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Rate.TrustedProxies)
	assert.Equal(t, "client", cfg.Spin.DrawMode)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestValidate_AdminRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_ADMIN_USERNAME", "admin")
	t.Setenv("AUTH_ADMIN_PASSWORD", "changeme")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}
