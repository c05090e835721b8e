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
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// loadFromEnv overrides configuration from environment variables.
// Malformed numeric or duration values are reported rather than ignored.
func (c *Config) loadFromEnv() error {
	var errs []error

	// Vendor
	if val := os.Getenv("ARENA_BASE_URL"); val != "" {
		c.Arena.BaseURL = val
	}
	if val := os.Getenv("ARENA_EMAIL"); val != "" {
		c.Arena.Email = val
	}
	if val := os.Getenv("ARENA_PASSWORD"); val != "" {
		c.Arena.Password = val
	}
	if val := os.Getenv("ARENA_WORKSPACE_ID"); val != "" {
		id, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("ARENA_WORKSPACE_ID must be an integer, got %q", val))
		} else {
			c.Arena.WorkspaceID = id
		}
	}
	if val := os.Getenv("ARENA_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("ARENA_TIMEOUT must be a duration, got %q", val))
		} else {
			c.Arena.Timeout = d
		}
	}

	// Transport
	if val := os.Getenv("MCP_TRANSPORT"); val != "" {
		c.Server.Transport = strings.ToLower(val)
	}
	if val := os.Getenv("MCP_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("MCP_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("MCP_PORT must be an integer, got %q", val))
		} else {
			c.Server.Port = port
		}
	}
	if val := os.Getenv("MCP_RATE_LIMIT"); val != "" {
		rate, err := strconv.ParseFloat(val, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MCP_RATE_LIMIT must be a number, got %q", val))
		} else {
			c.Server.RateLimit = rate
		}
	}

	// Auth gate
	if val := os.Getenv("MCP_AUTH_MODE"); val != "" {
		c.Auth.Mode = strings.ToLower(val)
	}
	if val := os.Getenv("MCP_AUTH_TOKEN"); val != "" {
		c.Auth.Token = val
	}
	if val := os.Getenv("MCP_AUTH_ALLOWED_DOMAINS"); val != "" {
		c.Auth.AllowedDomains = splitList(val)
	}
	if val := os.Getenv("MCP_AUTH_JWT_SECRET"); val != "" {
		c.Auth.JWT.Secret = val
	}
	if val := os.Getenv("MCP_AUTH_JWT_PUBLIC_KEY_FILE"); val != "" {
		c.Auth.JWT.PublicKeyFile = val
	}
	if val := os.Getenv("MCP_AUTH_JWT_ISSUER"); val != "" {
		c.Auth.JWT.Issuer = val
	}
	if val := os.Getenv("MCP_AUTH_JWT_AUDIENCE"); val != "" {
		c.Auth.JWT.Audience = val
	}
	// DISABLE_AUTH is the legacy switch and wins over MCP_AUTH_MODE
	if isTruthy(os.Getenv("DISABLE_AUTH")) {
		c.Auth.Mode = AuthModeNone
	}

	// Logging
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}

	// Tracing, using the standard OpenTelemetry variable names
	if val := os.Getenv("OTEL_TRACES_EXPORTER"); val != "" {
		c.Tracing.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"); val != "" {
		c.Tracing.Protocol = strings.ToLower(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); val != "" {
		c.Tracing.Insecure = isTruthy(val)
	}

	return errors.Join(errs...)
}

func isTruthy(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
