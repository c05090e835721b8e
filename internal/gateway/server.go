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

// Package gateway exposes the Arena session client as MCP tools. Every tool
// call passes the auth gate and the rate limiter, has its arguments
// validated against the tool's declared params, and then delegates to
// exactly one client operation.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tombee/arena-mcp/internal/auth"
	arenalog "github.com/tombee/arena-mcp/internal/log"
	"github.com/tombee/arena-mcp/internal/metrics"
	"github.com/tombee/arena-mcp/internal/tracing"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// outcomeRateLimited labels tool calls refused by the rate limiter.
const outcomeRateLimited = "rate_limited"

const instructions = "Read-only access to Arena PLM items. Start with search_items (or get_categories " +
	"to narrow by part type) to find item GUIDs, then use the get_item* tools with a GUID."

// Server wraps the MCP server and provides Arena tools
type Server struct {
	mcpServer *server.MCPServer
	client    Arena
	gate      *auth.Gate
	limiter   *RateLimiter
	logger    *slog.Logger
	tracer    trace.Tracer
	name      string
	version   string

	handlers map[string]server.ToolHandlerFunc
}

// ServerConfig configures the MCP server
type ServerConfig struct {
	// Name is the server name (default: "arena-mcp")
	Name string

	// Version is the arena-mcp version
	Version string

	// RateLimit is the sustained tool calls per second. Zero disables limiting.
	RateLimit float64

	// RateBurst is the number of calls allowed above the sustained rate.
	RateBurst int

	// Logger receives tool call and security logs. Default: slog.Default().
	Logger *slog.Logger
}

// NewServer creates a new MCP server instance. The gate is required; use a
// gate in mode none to run without authentication.
func NewServer(cfg ServerConfig, client Arena, gate *auth.Gate) (*Server, error) {
	if client == nil {
		return nil, errors.New("arena client is required")
	}
	if gate == nil {
		return nil, errors.New("auth gate is required")
	}
	if cfg.Name == "" {
		cfg.Name = "arena-mcp"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		mcpServer: server.NewMCPServer(cfg.Name, cfg.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
			server.WithInstructions(instructions),
		),
		client:   client,
		gate:     gate,
		limiter:  NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:   arenalog.WithComponent(cfg.Logger, "gateway"),
		tracer:   tracing.Tracer("gateway"),
		name:     cfg.Name,
		version:  cfg.Version,
		handlers: make(map[string]server.ToolHandlerFunc, len(toolSpecs)),
	}

	for _, spec := range toolSpecs {
		h := s.handler(spec)
		s.handlers[spec.name] = h
		s.mcpServer.AddTool(spec.tool(), h)
	}

	return s, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// handler wraps a tool spec with the per-call pipeline: correlation id and
// span, auth gate, rate limit, argument validation, delegate, then logging
// and metrics. Failures are returned as error results, never as protocol
// errors.
func (s *Server) handler(spec toolSpec) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cid := tracing.Ensure(ctx)
		ctx, span := s.tracer.Start(ctx, "tool "+spec.name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("mcp.tool.name", spec.name),
				attribute.String("correlation_id", cid.String()),
			),
		)
		defer span.End()

		start := time.Now()
		result, caller, errType := s.dispatch(ctx, spec, req)
		elapsed := time.Since(start)

		outcome := "ok"
		if errType != "" {
			outcome = errType
			span.SetStatus(codes.Error, errType)
		}
		metrics.RecordToolCall(spec.name, outcome, elapsed)
		arenalog.LogToolCall(ctx, s.logger, arenalog.ToolCall{
			Tool:       spec.name,
			Caller:     caller,
			DurationMs: elapsed.Milliseconds(),
			IsError:    errType != "",
			ErrorType:  errType,
		})

		return result, nil
	}
}

// dispatch runs one tool call and returns the result, the caller principal
// and the error type ("" on success).
func (s *Server) dispatch(ctx context.Context, spec toolSpec, req mcp.CallToolRequest) (*mcp.CallToolResult, string, string) {
	id, err := s.gate.Authenticate(ctx, auth.TokenFromContext(ctx))
	if err != nil {
		return errorResponse(err.Error()), "", arenaerrors.Classify(err)
	}
	ctx = auth.ContextWithIdentity(ctx, id)
	caller := id.Principal()

	if !s.limiter.AllowCall() {
		metrics.RecordRateLimited()
		return errorResponse("Rate limit exceeded. Please try again later."), caller, outcomeRateLimited
	}

	args, err := validateArgs(spec.params, req.GetArguments())
	if err != nil {
		msg, errType := s.toolError(ctx, spec.name, err)
		return errorResponse(msg), caller, errType
	}

	out, err := spec.call(ctx, s.client, args)
	if err != nil {
		msg, errType := s.toolError(ctx, spec.name, err)
		return errorResponse(msg), caller, errType
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode tool result", arenalog.ToolKey, spec.name, arenalog.Error(err))
		return errorResponse("Failed to encode result"), caller, "internal"
	}
	return textResponse(string(data)), caller, ""
}

// toolError turns an error into a caller-safe message and its type.
// Classified errors carry only parsed vendor messages; anything else is
// logged and reported generically.
func (s *Server) toolError(ctx context.Context, tool string, err error) (string, string) {
	var classified arenaerrors.ErrorClassifier
	if !errors.As(err, &classified) {
		switch {
		case errors.Is(err, context.Canceled):
			return "Request cancelled", "cancelled"
		case errors.Is(err, context.DeadlineExceeded):
			return "Request timed out", "timeout"
		}
		s.logger.ErrorContext(ctx, "tool call failed", arenalog.ToolKey, tool, arenalog.Error(err))
		return fmt.Sprintf("Internal error while running %s", tool), "internal"
	}

	msg := classified.Error()

	var validation *arenaerrors.ValidationError
	if errors.As(err, &validation) && validation.Suggestion != "" {
		msg = fmt.Sprintf("%s (%s)", msg, validation.Suggestion)
	}

	var expired *arenaerrors.SessionExpiredError
	if errors.As(err, &expired) {
		msg += "; retry the call to sign in again"
	}

	return msg, classified.ErrorType()
}

// errorResponse creates an error tool result.
func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// textResponse creates a success tool result.
func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
