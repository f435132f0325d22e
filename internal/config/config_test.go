// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers YAML parsing, env var expansion, and timeout duration parsing

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  http_addr: ":8085"
database:
  path: "/var/lib/vapi-gateway/options.db"
auth:
  jwt_secret: "super-secret"
vapi:
  base_url: "https://api.vapi.ai"
  timeout: "20s"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8085", cfg.Server.HTTPAddr)
	assert.Equal(t, "/var/lib/vapi-gateway/options.db", cfg.Database.Path)
	assert.Equal(t, "super-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "https://api.vapi.ai", cfg.Vapi.BaseURL)
	assert.Equal(t, "20s", cfg.Vapi.TimeoutRaw)
	assert.Equal(t, 20*time.Second, cfg.Vapi.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "from-env")
	path := writeConfigFile(t, `
server:
  http_addr: ":8085"
database:
  path: "./options.db"
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoad_UnsetEnvBecomesEmpty(t *testing.T) {
	path := writeConfigFile(t, `
server:
  http_addr: ":8085"
database:
  path: "./options.db"
auth:
  jwt_secret: "${DEFINITELY_NOT_SET_ANYWHERE}"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing http_addr",
			content: "database:\n  path: ./db\nauth:\n  jwt_secret: s\n",
			wantErr: "http_addr",
		},
		{
			name:    "missing database path",
			content: "server:\n  http_addr: \":8085\"\nauth:\n  jwt_secret: s\n",
			wantErr: "database.path",
		},
		{
			name:    "missing jwt secret",
			content: "server:\n  http_addr: \":8085\"\ndatabase:\n  path: ./db\n",
			wantErr: "jwt_secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_BadTimeout(t *testing.T) {
	path := writeConfigFile(t, `
server:
  http_addr: ":8085"
database:
  path: "./options.db"
auth:
  jwt_secret: "s"
vapi:
  timeout: "twenty seconds"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfigFile(t, "server: [unclosed"))
	assert.Error(t, err)
}
