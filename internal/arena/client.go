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

// Package arena is a read-only client for the Arena PLM REST API.
//
// A Client owns one vendor session. The session is created lazily by the
// first call that needs it and then reused by every caller until the vendor
// rejects it. Concurrent first calls may each log in; the last token stored
// wins and every reader sees a complete token.
//
// Nothing in this package retries. A rejected session surfaces as a
// SessionExpiredError and the caller decides whether to call again.
package arena

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tombee/arena-mcp/internal/tracing"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
	"github.com/tombee/arena-mcp/pkg/httpclient"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.arenasolutions.com/v1"

// SessionHeader carries the session token on every authenticated request.
const SessionHeader = "arena_session_id"

const vendorName = "arena"

// Config holds the vendor credentials and endpoint.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	Email    string
	Password string

	// WorkspaceID selects a workspace at login. Zero uses the account default.
	WorkspaceID int

	// Timeout bounds each request. Default: 30s.
	Timeout time.Duration
}

// Session is the credential obtained from the login exchange. It has no
// known expiry; it lives until the vendor rejects it.
type Session struct {
	Token       string
	WorkspaceID int
	CreatedAt   time.Time
}

// Client performs the documented read operations over one shared session.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	creds   Config
	http    *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer

	session atomic.Pointer[Session]

	// authErr remembers rejected credentials so later calls fail without
	// another login attempt.
	authErr atomic.Pointer[arenaerrors.AuthenticationError]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger for session lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client. No network I/O happens until the first operation.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		creds:   cfg,
		logger:  slog.Default(),
		tracer:  tracing.Tracer("arena"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		hcfg := httpclient.DefaultConfig()
		hcfg.Timeout = cfg.Timeout
		hcfg.Logger = c.logger
		hc, err := httpclient.New(hcfg)
		if err != nil {
			return nil, fmt.Errorf("creating HTTP client: %w", err)
		}
		c.http = hc
	}

	return c, nil
}

// HasSession reports whether a session is currently held.
func (c *Client) HasSession() bool {
	return c.session.Load() != nil
}
