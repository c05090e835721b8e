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

package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tombee/arena-mcp/internal/metrics"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EnsureSession returns the current session, logging in first when none is
// held. Rejected credentials are remembered: once login fails with an
// AuthenticationError every later call returns that error without contacting
// the vendor.
func (c *Client) EnsureSession(ctx context.Context) (*Session, error) {
	if s := c.session.Load(); s != nil {
		return s, nil
	}
	if authErr := c.authErr.Load(); authErr != nil {
		return nil, authErr
	}
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) (*Session, error) {
	ctx, span := c.tracer.Start(ctx, "arena.login", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if c.creds.Email == "" || c.creds.Password == "" {
		authErr := &arenaerrors.AuthenticationError{Message: "vendor email and password are not configured"}
		c.authErr.Store(authErr)
		span.SetStatus(codes.Error, "missing credentials")
		metrics.RecordLogin("failure")
		return nil, authErr
	}

	body, err := json.Marshal(loginRequest{
		Email:       c.creds.Email,
		Password:    c.creds.Password,
		WorkspaceID: c.creds.WorkspaceID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordVendorRequest("login", 0, time.Since(start))
		metrics.RecordLogin("failure")
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, &arenaerrors.UpstreamError{Vendor: vendorName, Message: "login request failed", Cause: err}
	}
	defer resp.Body.Close()

	metrics.RecordVendorRequest("login", resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.RecordLogin("failure")
		return nil, &arenaerrors.UpstreamError{Vendor: vendorName, StatusCode: resp.StatusCode, Message: "reading login response", Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		_, msg := parseVendorError(resp.StatusCode, payload)
		authErr := &arenaerrors.AuthenticationError{StatusCode: resp.StatusCode, Message: msg}
		c.authErr.Store(authErr)
		metrics.RecordLogin("failure")
		span.SetStatus(codes.Error, "credentials rejected")
		c.logger.ErrorContext(ctx, "vendor rejected credentials; tool calls will fail until restart",
			"status", resp.StatusCode,
			"email", c.creds.Email,
		)
		return nil, authErr

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.RecordLogin("failure")
		span.SetStatus(codes.Error, "login failed")
		return nil, newUpstreamError(resp.StatusCode, payload)
	}

	var lr loginResponse
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &lr); err != nil {
			metrics.RecordLogin("failure")
			return nil, &arenaerrors.UpstreamError{Vendor: vendorName, StatusCode: resp.StatusCode, Message: "malformed login response", Cause: err}
		}
	}

	token := lr.ArenaSessionID
	if token == "" {
		token = resp.Header.Get(SessionHeader)
	}
	if token == "" {
		metrics.RecordLogin("failure")
		return nil, &arenaerrors.UpstreamError{Vendor: vendorName, StatusCode: resp.StatusCode, Message: "login response carried no session id"}
	}

	session := &Session{
		Token:       token,
		WorkspaceID: lr.WorkspaceID,
		CreatedAt:   time.Now(),
	}
	c.session.Store(session)
	metrics.RecordLogin("success")

	c.logger.InfoContext(ctx, "vendor session established",
		"workspace_id", session.WorkspaceID,
		"workspace", lr.WorkspaceName,
	)

	return session, nil
}

// Logout ends the current session, if any. The session is dropped locally
// whatever the vendor answers.
func (c *Client) Logout(ctx context.Context) error {
	session := c.session.Load()
	if session == nil {
		return nil
	}
	c.session.CompareAndSwap(session, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("building logout request: %w", err)
	}
	req.Header.Set(SessionHeader, session.Token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordVendorRequest("logout", 0, time.Since(start))
		return &arenaerrors.UpstreamError{Vendor: vendorName, Message: "logout request failed", Cause: err}
	}
	defer resp.Body.Close()
	metrics.RecordVendorRequest("logout", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return newUpstreamError(resp.StatusCode, payload)
	}

	c.logger.InfoContext(ctx, "vendor session closed")
	return nil
}
