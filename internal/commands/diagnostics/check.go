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

// Package diagnostics implements the check command.
package diagnostics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tombee/arena-mcp/internal/arena"
	"github.com/tombee/arena-mcp/internal/auth"
	"github.com/tombee/arena-mcp/internal/commands/shared"
	"github.com/tombee/arena-mcp/internal/config"
	arenalog "github.com/tombee/arena-mcp/internal/log"
)

const loginTimeout = 30 * time.Second

// CheckResult is the outcome of a configuration and connectivity check
type CheckResult struct {
	shared.JSONResponse

	ConfigPath  string `json:"config_path,omitempty"`
	ConfigValid bool   `json:"config_valid"`
	ConfigError string `json:"config_error,omitempty"`

	Transport string `json:"transport,omitempty"`
	Addr      string `json:"addr,omitempty"`

	AuthMode     string   `json:"auth_mode,omitempty"`
	AuthEnabled  bool     `json:"auth_enabled"`
	AuthError    string   `json:"auth_error,omitempty"`
	AuthWarnings []string `json:"auth_warnings,omitempty"`

	BaseURL        string `json:"base_url,omitempty"`
	Email          string `json:"email,omitempty"`
	CredentialsSet bool   `json:"credentials_set"`
	LoginAttempted bool   `json:"login_attempted"`
	LoginOK        bool   `json:"login_ok"`
	WorkspaceID    int    `json:"workspace_id,omitempty"`
	LoginError     string `json:"login_error,omitempty"`
}

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check configuration and vendor connectivity",
		Long: `Check the effective arena-mcp configuration.

This command reports:
  - Whether the configuration loads and validates
  - The transport and listen address serve would use
  - The auth gate mode and any setting that would refuse every call
  - Whether vendor credentials are present and accepted by Arena

The vendor check performs one login and logs out again. Use --offline
to skip it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, offline)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the vendor login")

	return cmd
}

func runCheck(cmd *cobra.Command, offline bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, exitErr := check(ctx, offline, cmd.ErrOrStderr())

	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		if err := shared.EmitJSON(out, result); err != nil {
			return err
		}
	} else {
		printReport(out, result)
	}

	if exitErr != nil {
		return exitErr
	}
	return nil
}

func check(ctx context.Context, offline bool, logOut io.Writer) (*CheckResult, *shared.ExitError) {
	result := &CheckResult{JSONResponse: shared.NewJSONResponse("check", false)}

	result.ConfigPath = shared.GetConfigPath()
	if result.ConfigPath == "" {
		result.ConfigPath = os.Getenv("ARENA_MCP_CONFIG")
	}
	if result.ConfigPath == "" {
		if p, err := config.ConfigPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				result.ConfigPath = p
			}
		}
	}

	cfg, err := shared.LoadConfig(ctx)
	if err != nil {
		result.ConfigError = err.Error()
		return result, shared.NewConfigError("configuration is invalid", err)
	}
	result.ConfigValid = true
	result.Transport = cfg.Server.Transport
	if cfg.Server.Transport != config.TransportStdio {
		result.Addr = cfg.Server.Addr()
	}

	result.AuthMode = cfg.Auth.Mode
	result.AuthWarnings = cfg.AuthWarnings()
	gate, err := auth.New(cfg.Auth, auth.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		result.AuthError = err.Error()
		return result, shared.NewConfigError("auth gate is misconfigured", err)
	}
	result.AuthEnabled = gate.Enabled()

	result.BaseURL = cfg.Arena.BaseURL
	result.Email = cfg.Arena.Email
	result.CredentialsSet = cfg.RequireVendorCredentials() == nil
	if !result.CredentialsSet {
		return result, shared.NewCredentialError("vendor credentials are missing", config.ErrMissingVendorCredentials)
	}

	if !offline {
		logger := shared.NewLogger(cfg, logOut)
		if err := login(ctx, logger, cfg, result); err != nil {
			return result, shared.NewCredentialError("vendor login failed", err)
		}
	}

	result.Success = true
	return result, nil
}

// login opens and closes one vendor session.
func login(ctx context.Context, logger *slog.Logger, cfg *config.Config, result *CheckResult) error {
	result.LoginAttempted = true

	client, err := arena.New(arena.Config{
		BaseURL:     cfg.Arena.BaseURL,
		Email:       cfg.Arena.Email,
		Password:    cfg.Arena.Password,
		WorkspaceID: cfg.Arena.WorkspaceID,
		Timeout:     cfg.Arena.Timeout,
	}, arena.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		result.LoginError = err.Error()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	session, err := client.EnsureSession(ctx)
	if err != nil {
		result.LoginError = err.Error()
		return err
	}
	result.LoginOK = true
	result.WorkspaceID = session.WorkspaceID

	// The session is only needed for the login test
	if err := client.Logout(ctx); err != nil {
		logger.DebugContext(ctx, "vendor logout failed", arenalog.Error(err))
	}
	return nil
}

func printReport(w io.Writer, r *CheckResult) {
	fmt.Fprintln(w, shared.Header.Render("Configuration"))
	if r.ConfigPath != "" {
		fmt.Fprintln(w, shared.RenderField("file", r.ConfigPath))
	} else {
		fmt.Fprintln(w, shared.RenderField("file", "(defaults and environment)"))
	}
	if !r.ConfigValid {
		fmt.Fprintln(w, shared.RenderError(r.ConfigError))
		return
	}
	fmt.Fprintln(w, shared.RenderOK("configuration is valid"))
	fmt.Fprintln(w, shared.RenderField("transport", r.Transport))
	if r.Addr != "" {
		fmt.Fprintln(w, shared.RenderField("listen", r.Addr))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, shared.Header.Render("Authentication"))
	fmt.Fprintln(w, shared.RenderField("mode", r.AuthMode))
	switch {
	case r.AuthError != "":
		fmt.Fprintln(w, shared.RenderError(r.AuthError))
		return
	case !r.AuthEnabled:
		fmt.Fprintln(w, shared.RenderWarn("authentication is disabled"))
	case len(r.AuthWarnings) == 0:
		fmt.Fprintln(w, shared.RenderOK("gate is configured"))
	}
	for _, warning := range r.AuthWarnings {
		if r.AuthEnabled {
			fmt.Fprintln(w, shared.RenderWarn(warning))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, shared.Header.Render("Arena"))
	fmt.Fprintln(w, shared.RenderField("endpoint", r.BaseURL))
	if r.Email != "" {
		fmt.Fprintln(w, shared.RenderField("email", r.Email))
	}
	switch {
	case !r.CredentialsSet:
		fmt.Fprintln(w, shared.RenderError("credentials are missing; set ARENA_EMAIL and ARENA_PASSWORD or run 'arena-mcp credentials set'"))
	case !r.LoginAttempted:
		fmt.Fprintln(w, shared.RenderWarn("login skipped"))
	case r.LoginOK:
		fmt.Fprintln(w, shared.RenderOK(fmt.Sprintf("login succeeded (workspace %d)", r.WorkspaceID)))
	default:
		fmt.Fprintln(w, shared.RenderError("login failed: "+r.LoginError))
	}
}
