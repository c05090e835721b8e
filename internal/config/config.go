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

// Package config loads arena-mcp configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the Arena REST API endpoint.
const DefaultBaseURL = "https://api.arenasolutions.com/v1"

// MinSharedSecretLength is the shortest shared secret the token gate accepts.
const MinSharedSecretLength = 32

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"
)

// Auth modes.
const (
	AuthModeToken  = "token"
	AuthModeGoogle = "google"
	AuthModeJWT    = "jwt"
	AuthModeNone   = "none"
)

// ErrMissingVendorCredentials is returned when the vendor email or password is unset.
var ErrMissingVendorCredentials = errors.New("ARENA_EMAIL and ARENA_PASSWORD must be set")

// Config represents the complete arena-mcp configuration.
type Config struct {
	Arena   ArenaConfig   `yaml:"arena"`
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ArenaConfig configures the vendor session.
type ArenaConfig struct {
	BaseURL string `yaml:"base_url"`
	Email   string `yaml:"email"`

	// Password is normally supplied through ARENA_PASSWORD or the keychain
	// rather than written to the config file.
	Password string `yaml:"password,omitempty"`

	// WorkspaceID selects a workspace at login. Zero means the account default.
	WorkspaceID int `yaml:"workspace_id,omitempty"`

	// Timeout bounds each vendor request.
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the MCP transport.
type ServerConfig struct {
	// Transport is one of stdio, http, sse.
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`

	// RateLimit is the sustained tool calls per second. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	// RateBurst is the number of calls allowed above the sustained rate.
	RateBurst int `yaml:"rate_burst"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address for network transports.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig configures the caller authentication gate.
type AuthConfig struct {
	// Mode is one of token, google, jwt, none.
	Mode string `yaml:"mode"`

	// Token is the shared secret for token mode.
	Token string `yaml:"token,omitempty"`

	// AllowedDomains restricts google and jwt identities by email domain.
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`

	JWT    JWTConfig    `yaml:"jwt"`
	Google GoogleConfig `yaml:"google"`
}

// JWTConfig configures signed-token verification.
type JWTConfig struct {
	// Secret verifies HS256 tokens.
	Secret string `yaml:"secret,omitempty"`
	// PublicKeyFile is a PEM Ed25519 public key that verifies EdDSA tokens.
	PublicKeyFile string `yaml:"public_key_file,omitempty"`
	Issuer        string `yaml:"issuer,omitempty"`
	Audience      string `yaml:"audience,omitempty"`
}

// GoogleConfig configures access-token verification against Google.
type GoogleConfig struct {
	UserInfoURL string        `yaml:"userinfo_url,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Exporter string `yaml:"exporter"`
	Protocol string `yaml:"protocol"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Insecure bool   `yaml:"insecure"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Arena: ArenaConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Transport:       TransportStdio,
			Host:            "0.0.0.0",
			Port:            8080,
			RateLimit:       10,
			RateBurst:       20,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeToken,
			Google: GoogleConfig{
				UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
				Timeout:     10 * time.Second,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter: "none",
			Protocol: "grpc",
		},
	}
}

// Load loads configuration from an optional YAML file and environment variables.
// Environment variables take precedence over file-based configuration.
// When configPath is empty, ARENA_MCP_CONFIG is consulted, then the default
// file location if a file exists there.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = os.Getenv("ARENA_MCP_CONFIG")
	}
	if configPath == "" {
		if p, err := ConfigPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				configPath = p
			}
		}
	}

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &arenaerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, &arenaerrors.ConfigError{
			Key:    "environment",
			Reason: "invalid environment variable",
			Cause:  err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &arenaerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
// Fields absent from the file keep their defaults.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Validate checks that the configuration is valid.
//
// Missing gate secrets are not validation failures: the gate fails closed at
// call time so that a misconfigured deployment refuses calls rather than
// refusing to start and tempting an operator to disable auth.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.Arena.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("arena.base_url must be an absolute http(s) URL, got %q", c.Arena.BaseURL))
	}
	if c.Arena.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("arena.timeout must be positive, got %v", c.Arena.Timeout))
	}
	if c.Arena.WorkspaceID < 0 {
		errs = append(errs, fmt.Sprintf("arena.workspace_id must not be negative, got %d", c.Arena.WorkspaceID))
	}

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP, TransportSSE:
	default:
		errs = append(errs, fmt.Sprintf("server.transport must be one of [stdio, http, sse], got %q", c.Server.Transport))
	}
	if c.Server.Transport != TransportStdio && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("server.rate_limit must not be negative, got %v", c.Server.RateLimit))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		errs = append(errs, fmt.Sprintf("server.rate_burst must be at least 1 when rate limiting is enabled, got %d", c.Server.RateBurst))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout))
	}

	switch c.Auth.Mode {
	case AuthModeToken, AuthModeGoogle, AuthModeJWT, AuthModeNone:
	default:
		errs = append(errs, fmt.Sprintf("auth.mode must be one of [token, google, jwt, none], got %q", c.Auth.Mode))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	validExporters := map[string]bool{"none": true, "otlp": true, "console": true}
	if !validExporters[c.Tracing.Exporter] {
		errs = append(errs, fmt.Sprintf("tracing.exporter must be one of [none, otlp, console], got %q", c.Tracing.Exporter))
	}
	validProtocols := map[string]bool{"grpc": true, "http/protobuf": true}
	if c.Tracing.Exporter == "otlp" && !validProtocols[c.Tracing.Protocol] {
		errs = append(errs, fmt.Sprintf("tracing.protocol must be one of [grpc, http/protobuf], got %q", c.Tracing.Protocol))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// RequireVendorCredentials reports whether the vendor email and password are set.
func (c *Config) RequireVendorCredentials() error {
	if c.Arena.Email == "" || c.Arena.Password == "" {
		return ErrMissingVendorCredentials
	}
	return nil
}

// AuthWarnings describes gate settings that will refuse every call or
// bypass authentication. The server still starts; callers see the refusal.
func (c *Config) AuthWarnings() []string {
	var warnings []string

	switch c.Auth.Mode {
	case AuthModeNone:
		warnings = append(warnings, "authentication is DISABLED; use only for local development")
	case AuthModeToken:
		if len(c.Auth.Token) < MinSharedSecretLength {
			warnings = append(warnings, fmt.Sprintf("auth.token is unset or shorter than %d characters; every tool call will be refused", MinSharedSecretLength))
		}
	case AuthModeJWT:
		if c.Auth.JWT.Secret == "" && c.Auth.JWT.PublicKeyFile == "" {
			warnings = append(warnings, "auth.jwt has no secret or public key; every tool call will be refused")
		}
		if len(c.Auth.AllowedDomains) == 0 {
			warnings = append(warnings, "auth.allowed_domains is empty; every tool call will be refused")
		}
	case AuthModeGoogle:
		if len(c.Auth.AllowedDomains) == 0 {
			warnings = append(warnings, "auth.allowed_domains is empty; every tool call will be refused")
		}
	}

	return warnings
}
