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

// Package auth implements the caller authentication gate in front of the
// MCP tools. A Gate verifies the credential presented with each tool call
// according to the configured mode and refuses the call when verification
// fails or the mode is misconfigured.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tombee/arena-mcp/internal/config"
	arenalog "github.com/tombee/arena-mcp/internal/log"
	"github.com/tombee/arena-mcp/internal/metrics"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
)

// Rejection reasons reported in logs, metrics and AuthorizationError.
const (
	ReasonMissingToken        = "missing_token"
	ReasonInvalidToken        = "invalid_token"
	ReasonNotConfigured       = "not_configured"
	ReasonMissingEmail        = "missing_email"
	ReasonEmailUnverified     = "email_unverified"
	ReasonDomainNotAllowed    = "domain_not_allowed"
	ReasonProviderUnavailable = "provider_unavailable"
)

// Identity describes an authenticated caller.
type Identity struct {
	// Mode is the gate mode that accepted the caller.
	Mode string

	// Subject identifies the caller within the mode (token holder, JWT sub,
	// Google account id).
	Subject string

	// Email is set for delegated identity modes.
	Email string
}

// Principal returns the most descriptive name for the caller.
func (i *Identity) Principal() string {
	if i == nil {
		return ""
	}
	if i.Email != "" {
		return i.Email
	}
	return i.Subject
}

// verifier checks one presented credential.
type verifier interface {
	verify(ctx context.Context, token string) (*Identity, error)
}

// rejection is returned by verifiers. The cause is logged but never shown
// to the caller.
type rejection struct {
	reason string
	cause  error
}

func (r *rejection) Error() string {
	if r.cause != nil {
		return r.reason + ": " + r.cause.Error()
	}
	return r.reason
}

func (r *rejection) Unwrap() error { return r.cause }

func reject(reason string, cause error) error {
	return &rejection{reason: reason, cause: cause}
}

// Gate authenticates tool calls.
type Gate struct {
	mode     string
	verifier verifier
	logger   *slog.Logger
}

// Option configures a Gate.
type Option func(*gateOptions)

type gateOptions struct {
	logger     *slog.Logger
	httpClient *http.Client
}

// WithLogger sets the logger used for security events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *gateOptions) {
		o.logger = logger
	}
}

// WithHTTPClient sets the base HTTP client used to reach the identity
// provider in google mode.
func WithHTTPClient(client *http.Client) Option {
	return func(o *gateOptions) {
		o.httpClient = client
	}
}

// New builds a Gate for the configured mode. Missing secrets do not fail
// here: the gate is built fail-closed and refuses every call instead.
func New(cfg config.AuthConfig, opts ...Option) (*Gate, error) {
	o := gateOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Gate{
		mode:   cfg.Mode,
		logger: arenalog.WithComponent(o.logger, "auth"),
	}

	switch cfg.Mode {
	case config.AuthModeNone:
		g.verifier = nil
	case config.AuthModeToken:
		g.verifier = newTokenVerifier(cfg.Token)
	case config.AuthModeJWT:
		v, err := newJWTVerifier(cfg.JWT, cfg.AllowedDomains)
		if err != nil {
			return nil, err
		}
		g.verifier = v
	case config.AuthModeGoogle:
		v, err := newGoogleVerifier(cfg.Google, cfg.AllowedDomains, o.httpClient, o.logger)
		if err != nil {
			return nil, err
		}
		g.verifier = v
	default:
		return nil, &arenaerrors.ConfigError{
			Key:    "auth.mode",
			Reason: fmt.Sprintf("unknown auth mode %q", cfg.Mode),
		}
	}

	return g, nil
}

// Mode returns the configured gate mode.
func (g *Gate) Mode() string {
	return g.mode
}

// Enabled reports whether the gate checks credentials at all.
func (g *Gate) Enabled() bool {
	return g.verifier != nil
}

// Authenticate verifies the presented token. Rejections return an
// AuthorizationError, log a security event and are counted.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if g.verifier == nil {
		return &Identity{Mode: config.AuthModeNone, Subject: "anonymous"}, nil
	}

	if token == "" {
		return nil, g.rejected(ctx, reject(ReasonMissingToken, nil))
	}

	id, err := g.verifier.verify(ctx, token)
	if err != nil {
		return nil, g.rejected(ctx, err)
	}
	id.Mode = g.mode
	return id, nil
}

func (g *Gate) rejected(ctx context.Context, err error) error {
	reason := ReasonInvalidToken
	var r *rejection
	if errors.As(err, &r) {
		reason = r.reason
	}

	// Tokens are never logged, only the reason and any internal cause.
	attrs := []any{"mode", g.mode, "reason", reason}
	if r != nil && r.cause != nil {
		attrs = append(attrs, arenalog.Error(r.cause))
	}
	arenalog.SecurityEvent(ctx, g.logger, arenalog.EventAuthRejected, "tool call rejected", attrs...)
	metrics.RecordAuthRejection(g.mode, reason)

	return &arenaerrors.AuthorizationError{Mode: g.mode, Reason: reason}
}
