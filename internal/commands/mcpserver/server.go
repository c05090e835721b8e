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

// Package mcpserver implements the serve command, which runs the Arena tools
// over one MCP transport until interrupted.
package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tombee/arena-mcp/internal/arena"
	"github.com/tombee/arena-mcp/internal/auth"
	"github.com/tombee/arena-mcp/internal/commands/shared"
	"github.com/tombee/arena-mcp/internal/config"
	"github.com/tombee/arena-mcp/internal/gateway"
	arenalog "github.com/tombee/arena-mcp/internal/log"
	"github.com/tombee/arena-mcp/internal/tracing"
)

// ClientTokenEnv holds the credential a stdio client presents to the gate.
const ClientTokenEnv = "ARENA_MCP_CLIENT_TOKEN"

const logoutTimeout = 5 * time.Second

type serveOptions struct {
	transport string
	host      string
	port      int
}

// NewCommand creates the serve command
func NewCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Arena MCP server",
		Long: `Start the Arena MCP server.

The server exposes read-only Arena PLM lookups as MCP tools:
  - search_items, get_item, get_item_bom, get_item_where_used
  - get_item_revisions, get_item_files, get_item_sourcing
  - get_categories

Vendor credentials come from ARENA_EMAIL and ARENA_PASSWORD, or from the
keychain entry written by 'arena-mcp credentials set'.

The stdio transport is the default and suits local assistants:
  {
    "mcpServers": {
      "arena": {
        "command": "arena-mcp",
        "args": ["serve"],
        "env": {"ARENA_MCP_CLIENT_TOKEN": "<shared secret>"}
      }
    }
  }

The http and sse transports listen on --host:--port and also serve
/healthz and /metrics. Callers authenticate with a bearer token or the
X-API-Key header according to the configured auth mode.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "", "Transport to serve (stdio, http, sse)")
	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host for http and sse")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Listen port for http and sse")

	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.LoadConfig(ctx)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg, opts); err != nil {
		return err
	}

	logger := shared.NewLogger(cfg, cmd.ErrOrStderr())

	if err := cfg.RequireVendorCredentials(); err != nil {
		return shared.NewCredentialError("cannot start without vendor credentials", err)
	}
	reportAuthWarnings(ctx, logger, cfg)

	version, _, _ := shared.GetVersion()

	provider, err := tracing.NewProvider(ctx, tracing.Config{
		Exporter:       cfg.Tracing.Exporter,
		Protocol:       cfg.Tracing.Protocol,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		ServiceName:    "arena-mcp",
		ServiceVersion: version,
	})
	if err != nil {
		return shared.NewConfigError("failed to start tracing", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", arenalog.Error(err))
		}
	}()

	client, err := arena.New(arena.Config{
		BaseURL:     cfg.Arena.BaseURL,
		Email:       cfg.Arena.Email,
		Password:    cfg.Arena.Password,
		WorkspaceID: cfg.Arena.WorkspaceID,
		Timeout:     cfg.Arena.Timeout,
	}, arena.WithLogger(arenalog.WithComponent(logger, "arena")))
	if err != nil {
		return shared.NewFailure("failed to create Arena client", err)
	}
	defer logout(logger, client)

	gate, err := auth.New(cfg.Auth, auth.WithLogger(logger))
	if err != nil {
		return shared.NewConfigError("failed to configure authentication", err)
	}

	srv, err := gateway.NewServer(gateway.ServerConfig{
		Version:   version,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		Logger:    logger,
	}, client, gate)
	if err != nil {
		return shared.NewFailure("failed to create MCP server", err)
	}

	if cfg.Server.Transport == config.TransportStdio {
		err = srv.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), os.Getenv(ClientTokenEnv))
	} else {
		err = srv.ListenAndServe(ctx, cfg.Server.Transport, cfg.Server.Addr(), cfg.Server.ShutdownTimeout)
	}
	if err != nil {
		return shared.NewFailure("server stopped", err)
	}
	return nil
}

// applyFlags overrides file and environment settings with explicitly set
// flags and validates the result.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts serveOptions) error {
	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Server.Transport = opts.transport
	}
	if flags.Changed("host") {
		cfg.Server.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if err := cfg.Validate(); err != nil {
		return shared.NewConfigError("invalid configuration", err)
	}
	return nil
}

func reportAuthWarnings(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, warning := range cfg.AuthWarnings() {
		if cfg.Auth.Mode == config.AuthModeNone {
			arenalog.SecurityEvent(ctx, logger, arenalog.EventAuthDisabled, warning, "auth_mode", cfg.Auth.Mode)
			continue
		}
		logger.WarnContext(ctx, warning, "auth_mode", cfg.Auth.Mode)
	}
}

// logout ends the vendor session on the way out. Failures are only logged.
func logout(logger *slog.Logger, client *arena.Client) {
	if !client.HasSession() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()
	if err := client.Logout(ctx); err != nil {
		logger.Warn("vendor logout failed", arenalog.Error(err))
	}
}
