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

package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tombee/arena-mcp/internal/commands/shared"
	"github.com/zalando/go-keyring"
)

func setupEnv(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{
		"ARENA_MCP_CONFIG", "ARENA_EMAIL", "ARENA_PASSWORD", "ARENA_BASE_URL",
		"MCP_TRANSPORT", "MCP_HOST", "MCP_PORT", "MCP_AUTH_MODE", "MCP_AUTH_TOKEN",
		"DISABLE_AUTH", "LOG_LEVEL", "LOG_FORMAT", "OTEL_TRACES_EXPORTER", ClientTokenEnv,
	} {
		t.Setenv(name, "")
	}
	shared.SetConfigPathForTest("")
}

func withCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("ARENA_EMAIL", "eng@example.com")
	t.Setenv("ARENA_PASSWORD", "hunter2")
	t.Setenv("ARENA_BASE_URL", "http://127.0.0.1:1")
}

func execute(ctx context.Context, stdin string, args ...string) (string, error) {
	cmd := NewCommand()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(ctx)
	return stderr.String(), err
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *shared.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
}

func TestServe_RefusesWithoutVendorCredentials(t *testing.T) {
	setupEnv(t)

	_, err := execute(context.Background(), "")
	requireExitCode(t, err, shared.ExitCredentialError)
}

func TestServe_InvalidTransportFlag(t *testing.T) {
	setupEnv(t)
	withCredentials(t)

	_, err := execute(context.Background(), "", "--transport", "smoke-signal")
	requireExitCode(t, err, shared.ExitConfigError)
}

func TestServe_StdioStopsAtEOF(t *testing.T) {
	setupEnv(t)
	withCredentials(t)
	t.Setenv(ClientTokenEnv, strings.Repeat("k", 32))

	stderr, err := execute(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Starting arena-mcp server")
	assert.Contains(t, stderr, `"transport":"stdio"`)
	// MCP_AUTH_TOKEN is unset, so every call would be refused
	assert.Contains(t, stderr, "auth.token is unset")
}

func TestServe_DisabledAuthIsSecurityEvent(t *testing.T) {
	setupEnv(t)
	withCredentials(t)
	t.Setenv("DISABLE_AUTH", "true")

	stderr, err := execute(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, stderr, "security.auth_disabled")
	assert.Contains(t, stderr, "authentication is DISABLED")
}

func TestServe_HTTPStopsOnCancel(t *testing.T) {
	setupEnv(t)
	withCredentials(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := execute(ctx, "", "--transport", "http", "--host", "127.0.0.1", "--port", fmt.Sprint(port))
		done <- err
	}()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
