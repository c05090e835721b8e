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

package log

import (
	"context"
	"log/slog"
)

// Security event names.
const (
	EventAuthRejected = "security.auth_rejected"
	EventAuthDisabled = "security.auth_disabled"
)

// ToolCall describes one MCP tool invocation for logging purposes.
type ToolCall struct {
	// Tool is the MCP tool name.
	Tool string

	// Caller identifies the authenticated principal, when known.
	Caller string

	// DurationMs is the handler duration in milliseconds.
	DurationMs int64

	// IsError reports whether the result was an error result.
	IsError bool

	// ErrorType is the classified error type for error results.
	ErrorType string
}

// LogToolCall logs a completed tool invocation. Error results log at WARN
// because they are caller-visible outcomes rather than server faults.
func LogToolCall(ctx context.Context, logger *slog.Logger, call ToolCall) {
	attrs := []any{
		EventKey, "tool_call",
		ToolKey, call.Tool,
		DurationKey, call.DurationMs,
	}

	if call.Caller != "" {
		attrs = append(attrs, "caller", call.Caller)
	}

	level := slog.LevelInfo
	message := "tool call completed"

	if call.IsError {
		level = slog.LevelWarn
		message = "tool call failed"
		attrs = append(attrs, "error_type", call.ErrorType)
	}

	logger.Log(ctx, level, message, attrs...)
}

// SecurityEvent logs a security-relevant event at WARN with the event key set.
func SecurityEvent(ctx context.Context, logger *slog.Logger, event, msg string, attrs ...any) {
	logger.Log(ctx, slog.LevelWarn, msg, append([]any{EventKey, event}, attrs...)...)
}
