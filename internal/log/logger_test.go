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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/tombee/arena-mcp/internal/tracing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}

	if cfg.Format != FormatJSON {
		t.Errorf("expected default format 'json', got %q", cfg.Format)
	}

	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		envVars    map[string]string
		wantLevel  string
		wantFormat Format
		wantSource bool
	}{
		{"defaults", map[string]string{}, "info", FormatJSON, false},
		{"level and format", map[string]string{"LOG_LEVEL": "DEBUG", "LOG_FORMAT": "Text"}, "debug", FormatText, false},
		{"source", map[string]string{"LOG_SOURCE": "1"}, "info", FormatJSON, true},
		{"debug wins over level", map[string]string{"ARENA_MCP_DEBUG": "1", "LOG_LEVEL": "error"}, "debug", FormatJSON, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"ARENA_MCP_DEBUG", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := FromEnv()
			if cfg.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", cfg.Level, tt.wantLevel)
			}
			if cfg.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", cfg.Format, tt.wantFormat)
			}
			if cfg.AddSource != tt.wantSource {
				t.Errorf("AddSource = %v, want %v", cfg.AddSource, tt.wantSource)
			}
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	logger.Info("hello", ToolKey, "get_item")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry[ToolKey] != "get_item" {
		t.Errorf("tool = %v, want get_item", entry[ToolKey])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatText, Output: &buf})

	logger.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}

	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_CorrelationIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(New(&Config{Format: FormatJSON, Output: &buf}), "gateway")

	id := tracing.NewCorrelationID()
	ctx := tracing.ToContext(context.Background(), id)
	logger.InfoContext(ctx, "with id")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry[CorrelationIDKey] != id.String() {
		t.Errorf("correlation_id = %v, want %s", entry[CorrelationIDKey], id)
	}
	if entry[ComponentKey] != "gateway" {
		t.Errorf("component = %v, want gateway", entry[ComponentKey])
	}

	buf.Reset()
	logger.Info("without id")
	if strings.Contains(buf.String(), CorrelationIDKey) {
		t.Errorf("unexpected correlation_id in %q", buf.String())
	}
}

func TestLogToolCall(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	LogToolCall(context.Background(), logger, ToolCall{Tool: "get_item", DurationMs: 12})
	LogToolCall(context.Background(), logger, ToolCall{Tool: "get_item", IsError: true, ErrorType: "not_found"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lines))
	}

	var ok, failed map[string]any
	_ = json.Unmarshal([]byte(lines[0]), &ok)
	_ = json.Unmarshal([]byte(lines[1]), &failed)

	if ok["level"] != "INFO" || ok[DurationKey] != float64(12) {
		t.Errorf("unexpected success entry: %v", ok)
	}
	if failed["level"] != "WARN" || failed["error_type"] != "not_found" {
		t.Errorf("unexpected failure entry: %v", failed)
	}
}

func TestSecurityEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "error", Format: FormatJSON, Output: &buf})

	SecurityEvent(context.Background(), logger, EventAuthRejected, "rejected", "mode", "token")
	if buf.Len() != 0 {
		t.Errorf("WARN event should be filtered at error level, got %q", buf.String())
	}

	logger = New(&Config{Level: "info", Format: FormatJSON, Output: &buf})
	SecurityEvent(context.Background(), logger, EventAuthRejected, "rejected", "mode", "token")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry[EventKey] != EventAuthRejected || entry["mode"] != "token" || entry["level"] != "WARN" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestErrorAttr(t *testing.T) {
	attr := Error(errors.New("boom"))
	if attr.Key != "error" {
		t.Errorf("key = %q, want error", attr.Key)
	}
}

func TestSanitizeAPIKey(t *testing.T) {
	tests := map[string]string{
		"":                           "[REDACTED]",
		"short":                      "[REDACTED]",
		"abcdefgh":                   "[REDACTED]",
		"0123456789abcdef0123456789": "...6789",
	}

	for in, want := range tests {
		if got := SanitizeAPIKey(in); got != want {
			t.Errorf("SanitizeAPIKey(%q) = %q, want %q", in, got, want)
		}
	}
}
