// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tombee/arena-mcp/internal/secrets"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
)

var envKeys = []string{
	"ARENA_MCP_CONFIG", "ARENA_BASE_URL", "ARENA_EMAIL", "ARENA_PASSWORD", "ARENA_WORKSPACE_ID", "ARENA_TIMEOUT",
	"MCP_TRANSPORT", "MCP_HOST", "MCP_PORT", "MCP_RATE_LIMIT",
	"MCP_AUTH_MODE", "MCP_AUTH_TOKEN", "MCP_AUTH_ALLOWED_DOMAINS",
	"MCP_AUTH_JWT_SECRET", "MCP_AUTH_JWT_PUBLIC_KEY_FILE", "MCP_AUTH_JWT_ISSUER", "MCP_AUTH_JWT_AUDIENCE",
	"DISABLE_AUTH", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE",
	"OTEL_TRACES_EXPORTER", "OTEL_EXPORTER_OTLP_PROTOCOL", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
}

// isolate clears every variable Load reads and points the default config
// location at an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultBaseURL, cfg.Arena.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Arena.Timeout)
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, AuthModeToken, cfg.Auth.Mode, "auth must never default to disabled")
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"relative base url", func(c *Config) { c.Arena.BaseURL = "/v1" }, "arena.base_url"},
		{"ftp base url", func(c *Config) { c.Arena.BaseURL = "ftp://example.com" }, "arena.base_url"},
		{"zero timeout", func(c *Config) { c.Arena.Timeout = 0 }, "arena.timeout"},
		{"negative workspace", func(c *Config) { c.Arena.WorkspaceID = -1 }, "arena.workspace_id"},
		{"unknown transport", func(c *Config) { c.Server.Transport = "websocket" }, "server.transport"},
		{"bad port for http", func(c *Config) { c.Server.Transport = TransportHTTP; c.Server.Port = 70000 }, "server.port"},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"zero burst", func(c *Config) { c.Server.RateBurst = 0 }, "server.rate_burst"},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "basic" }, "auth.mode"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"bad protocol", func(c *Config) { c.Tracing.Exporter = "otlp"; c.Tracing.Protocol = "udp" }, "tracing.protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_StdioIgnoresPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("ARENA_EMAIL", "eng@example.com")
	t.Setenv("ARENA_PASSWORD", "hunter2")
	t.Setenv("ARENA_WORKSPACE_ID", "898")
	t.Setenv("MCP_TRANSPORT", "HTTP")
	t.Setenv("MCP_PORT", "9090")
	t.Setenv("MCP_AUTH_MODE", "google")
	t.Setenv("MCP_AUTH_ALLOWED_DOMAINS", "example.com, corp.example.com ,")
	t.Setenv("OTEL_TRACES_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "eng@example.com", cfg.Arena.Email)
	assert.Equal(t, "hunter2", cfg.Arena.Password)
	assert.Equal(t, 898, cfg.Arena.WorkspaceID)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, AuthModeGoogle, cfg.Auth.Mode)
	assert.Equal(t, []string{"example.com", "corp.example.com"}, cfg.Auth.AllowedDomains)
	assert.Equal(t, "http/protobuf", cfg.Tracing.Protocol)
}

func TestLoadFromEnv_DisableAuth(t *testing.T) {
	for _, val := range []string{"true", "1", "YES"} {
		t.Run(val, func(t *testing.T) {
			isolate(t)
			t.Setenv("MCP_AUTH_MODE", "token")
			t.Setenv("DISABLE_AUTH", val)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
		})
	}

	t.Run("false keeps gate", func(t *testing.T) {
		isolate(t)
		t.Setenv("DISABLE_AUTH", "false")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, AuthModeToken, cfg.Auth.Mode)
	})
}

func TestLoadFromEnv_Malformed(t *testing.T) {
	isolate(t)
	t.Setenv("ARENA_WORKSPACE_ID", "abc")
	t.Setenv("MCP_PORT", "eighty")

	_, err := Load("")
	require.Error(t, err)

	var cfgErr *arenaerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "environment", cfgErr.Key)
	assert.Contains(t, err.Error(), "ARENA_WORKSPACE_ID")
	assert.Contains(t, err.Error(), "MCP_PORT")
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
arena:
  email: file@example.com
  workspace_id: 12
  timeout: 5s
server:
  transport: sse
  port: 9999
auth:
  mode: jwt
  allowed_domains: [example.com]
  jwt:
    secret: file-secret
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file@example.com", cfg.Arena.Email)
	assert.Equal(t, 12, cfg.Arena.WorkspaceID)
	assert.Equal(t, 5*time.Second, cfg.Arena.Timeout)
	assert.Equal(t, DefaultBaseURL, cfg.Arena.BaseURL, "unset fields keep defaults")
	assert.Equal(t, TransportSSE, cfg.Server.Transport)
	assert.Equal(t, AuthModeJWT, cfg.Auth.Mode)
	assert.Equal(t, "file-secret", cfg.Auth.JWT.Secret)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0600))
	t.Setenv("MCP_PORT", "7777")
	t.Setenv("ARENA_MCP_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
}

func TestLoadDefaultLocation(t *testing.T) {
	isolate(t)

	dir, err := ConfigDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("arena:\n  email: xdg@example.com\n"), 0600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "xdg@example.com", cfg.Arena.Email)
}

func TestLoadInvalidFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	var cfgErr *arenaerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "config_file", cfgErr.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML")
}

func TestLoadValidationFailure(t *testing.T) {
	isolate(t)
	t.Setenv("MCP_AUTH_MODE", "magic")

	_, err := Load("")
	require.Error(t, err)

	var cfgErr *arenaerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "validation", cfgErr.Key)
}

func TestRequireVendorCredentials(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.RequireVendorCredentials(), ErrMissingVendorCredentials)

	cfg.Arena.Email = "eng@example.com"
	assert.ErrorIs(t, cfg.RequireVendorCredentials(), ErrMissingVendorCredentials)

	cfg.Arena.Password = "pw"
	assert.NoError(t, cfg.RequireVendorCredentials())
}

func TestAuthWarnings(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"disabled", func(c *Config) { c.Auth.Mode = AuthModeNone }, "DISABLED"},
		{"short token", func(c *Config) { c.Auth.Token = "short" }, "auth.token"},
		{"jwt without key", func(c *Config) { c.Auth.Mode = AuthModeJWT; c.Auth.AllowedDomains = []string{"x.com"} }, "auth.jwt"},
		{"google without domains", func(c *Config) { c.Auth.Mode = AuthModeGoogle }, "allowed_domains"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			warnings := cfg.AuthWarnings()
			require.NotEmpty(t, warnings)
			assert.True(t, strings.Contains(strings.Join(warnings, "\n"), tt.want))
		})
	}

	cfg := Default()
	cfg.Auth.Token = strings.Repeat("a", MinSharedSecretLength)
	assert.Empty(t, cfg.AuthWarnings())
}

type stubStore struct {
	values map[string]string
	err    error
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[key]
	if !ok {
		return "", secrets.ErrSecretNotFound
	}
	return v, nil
}

func (s *stubStore) Set(context.Context, string, string) error { return nil }
func (s *stubStore) Delete(context.Context, string) error      { return nil }

func TestResolveSecrets(t *testing.T) {
	store := &stubStore{values: map[string]string{"eng@example.com": "from-keychain"}}

	t.Run("fills missing password", func(t *testing.T) {
		cfg := Default()
		cfg.Arena.Email = "eng@example.com"
		require.NoError(t, cfg.ResolveSecrets(context.Background(), store))
		assert.Equal(t, "from-keychain", cfg.Arena.Password)
	})

	t.Run("environment wins", func(t *testing.T) {
		cfg := Default()
		cfg.Arena.Email = "eng@example.com"
		cfg.Arena.Password = "from-env"
		require.NoError(t, cfg.ResolveSecrets(context.Background(), store))
		assert.Equal(t, "from-env", cfg.Arena.Password)
	})

	t.Run("missing entry is not an error", func(t *testing.T) {
		cfg := Default()
		cfg.Arena.Email = "other@example.com"
		require.NoError(t, cfg.ResolveSecrets(context.Background(), store))
		assert.Empty(t, cfg.Arena.Password)
	})

	t.Run("unexpected keychain failure", func(t *testing.T) {
		cfg := Default()
		cfg.Arena.Email = "eng@example.com"
		err := cfg.ResolveSecrets(context.Background(), &stubStore{err: errors.New("boom")})
		assert.Error(t, err)
	})
}
