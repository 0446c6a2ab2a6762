package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-secret-that-is-long-enough"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FLASHCARDS_AUTH_JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "text", cfg.Server.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "data/flashcards.db", cfg.Database.Path)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.SecureCookie)
	assert.True(t, cfg.Access.EnforceOwnership)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FLASHCARDS_AUTH_JWT_SECRET", testSecret)
	t.Setenv("FLASHCARDS_SERVER_PORT", "9090")
	t.Setenv("FLASHCARDS_SERVER_LOG_FORMAT", "json")
	t.Setenv("FLASHCARDS_AUTH_TOKEN_TTL", "90m")
	t.Setenv("FLASHCARDS_ACCESS_ENFORCE_OWNERSHIP", "false")
	t.Setenv("FLASHCARDS_DATABASE_PATH", ":memory:")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Server.LogFormat)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Access.EnforceOwnership)
	assert.Equal(t, ":memory:", cfg.Database.Path)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashcards.yaml")
	content := `
server:
  port: 7070
  log_level: debug
auth:
  jwt_secret: from-the-config-file!!
  bcrypt_cost: 4
database:
  path: /tmp/cards.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "from-the-config-file!!", cfg.Auth.JWTSecret)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.Equal(t, "/tmp/cards.db", cfg.Database.Path)
}

// Environment beats the file.
func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashcards.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\nauth:\n  jwt_secret: from-the-config-file!!\n"), 0o600))
	t.Setenv("FLASHCARDS_SERVER_PORT", "6060")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "JWTSecret"},
		{"short secret", map[string]string{"FLASHCARDS_AUTH_JWT_SECRET": "short"}, "JWTSecret"},
		{"port out of range", map[string]string{"FLASHCARDS_AUTH_JWT_SECRET": testSecret, "FLASHCARDS_SERVER_PORT": "70000"}, "Port"},
		{"bad log level", map[string]string{"FLASHCARDS_AUTH_JWT_SECRET": testSecret, "FLASHCARDS_SERVER_LOG_LEVEL": "loud"}, "LogLevel"},
		{"bcrypt cost too low", map[string]string{"FLASHCARDS_AUTH_JWT_SECRET": testSecret, "FLASHCARDS_AUTH_BCRYPT_COST": "2"}, "BcryptCost"},
		{"zero ttl", map[string]string{"FLASHCARDS_AUTH_JWT_SECRET": testSecret, "FLASHCARDS_AUTH_TOKEN_TTL": "0s"}, "TokenTTL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("FLASHCARDS_AUTH_JWT_SECRET", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load("")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ServerConfig{LogLevel: in}.SlogLevel(), "level %q", in)
	}
}
