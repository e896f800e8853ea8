package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  env: prod
  http:
    port: 8080
jwt:
  secret: from-file
db:
  driver: postgres
  dsn: postgres://campus@db/campus
redis:
  enable: true
realtime:
  requireAuth: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFileAndDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.True(t, c.IsProd())
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.True(t, c.Redis.Enable)
	assert.False(t, c.Realtime.RequireAuth)
	// defaults
	assert.Equal(t, 54, c.Realtime.PingSec)
	assert.Equal(t, 256, c.Realtime.SendBuffer)
	assert.Equal(t, 30, c.Cache.StatsTTLSec)
	assert.Equal(t, "campus:notify:user:", c.Realtime.ChannelPrefix)
	assert.Equal(t, 500.0, c.Limits.GlobalRPS)
	assert.Equal(t, 1000, c.Limits.GlobalBurst)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "from-env")
	t.Setenv("APP_APP_HTTP_PORT", "9090")

	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.JWT.Secret)
	assert.Equal(t, 9090, c.App.HTTP.Port)
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "s")
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, 5000, c.App.HTTP.Port)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := Load(writeConfig(t, "app:\n  name: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}
