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

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/tombee/arena-mcp/internal/auth"
	"github.com/tombee/arena-mcp/internal/config"
	"github.com/tombee/arena-mcp/internal/metrics"
	"github.com/tombee/arena-mcp/internal/tracing"
)

// Endpoint paths on the network transports.
const (
	PathMCP     = "/mcp"
	PathSSE     = "/sse"
	PathMessage = "/message"
	PathHealth  = "/healthz"
	PathMetrics = "/metrics"
)

const defaultShutdownTimeout = 10 * time.Second

// ServeStdio serves MCP over in and out until ctx is cancelled or in is
// closed. token is the credential presented to the auth gate on every call.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer, token string) error {
	s.logger.InfoContext(ctx, "Starting arena-mcp server",
		slog.String("version", s.version),
		slog.String("transport", config.TransportStdio),
		slog.String("auth_mode", s.gate.Mode()),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	stdio.SetContextFunc(func(ctx context.Context) context.Context {
		return auth.ContextWithToken(ctx, token)
	})

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// HTTPHandler returns the handler for the http or sse transport: the MCP
// endpoints plus unauthenticated /healthz and /metrics.
func (s *Server) HTTPHandler(transport string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathHealth, handleHealth)
	mux.Handle("GET "+PathMetrics, metrics.Handler())

	if transport == config.TransportSSE {
		sse := server.NewSSEServer(s.mcpServer, server.WithSSEContextFunc(requestContext))
		mux.Handle(PathSSE, sse)
		mux.Handle(PathMessage, sse)
	} else {
		mux.Handle(PathMCP, server.NewStreamableHTTPServer(s.mcpServer, server.WithHTTPContextFunc(requestContext)))
	}

	return mux
}

// ListenAndServe serves the http or sse transport on addr until ctx is
// cancelled, then shuts down gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, transport, addr string, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(transport),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.logger.InfoContext(ctx, "Starting arena-mcp server",
		slog.String("version", s.version),
		slog.String("transport", transport),
		slog.String("addr", addr),
		slog.String("auth_mode", s.gate.Mode()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("MCP server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down arena-mcp server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Open SSE streams do not finish on their own; close whatever is left
	// once the timeout expires.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutting down MCP server: %w", err)
		}
	}
	return nil
}

// requestContext carries the presented credential and any valid inbound
// correlation id into the tool call context.
func requestContext(ctx context.Context, r *http.Request) context.Context {
	ctx = auth.ContextWithToken(ctx, auth.ExtractToken(r))
	if id, ok := tracing.ExtractFromRequest(r); ok {
		ctx = tracing.ToContext(ctx, id)
	}
	return ctx
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}
