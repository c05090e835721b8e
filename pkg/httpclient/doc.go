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

// Package httpclient provides the HTTP client used for all vendor API traffic.
//
// The client is deliberately thin: it never retries, never waits on rate
// limits, and never follows a request with another one. Each call maps to
// exactly one round trip so that callers can reason about what reached the
// vendor.
//
//	cfg := httpclient.DefaultConfig()
//	cfg.UserAgent = "arena-mcp/1.0"
//	client, err := httpclient.New(cfg)
//
// # Security
//
//   - Sensitive query parameters (token, password, session, ...) are redacted from logs
//   - Request headers are never logged
//   - TLS 1.2 minimum with certificate validation enabled
//
// # Observability
//
// Requests emit structured logs through the configured *slog.Logger:
//   - Debug level: successful requests (2xx status)
//   - Warn level: failed requests (4xx/5xx status, transport errors)
//   - Fields: method, url (sanitized), status, duration_ms, error
//   - Correlation IDs are propagated as X-Correlation-ID when present in the context
package httpclient
