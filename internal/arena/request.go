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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tombee/arena-mcp/internal/metrics"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes caps how much of a vendor response is read.
const maxResponseBytes = 16 << 20

// request describes one authenticated vendor call.
type request struct {
	// op names the call for spans and metrics.
	op    string
	path  string
	query url.Values

	// resource and id describe the target for NotFoundError.
	resource string
	id       string
}

// get issues an authenticated GET and decodes a 2xx body into out.
//
// A 401 drops the session that was used so the next call logs in again, and
// returns SessionExpiredError. A 404 returns NotFoundError. Any other non-2xx
// status returns UpstreamError carrying the vendor's status and message.
func (c *Client) get(ctx context.Context, r request, out any) error {
	session, err := c.EnsureSession(ctx)
	if err != nil {
		return err
	}

	ctx, span := c.tracer.Start(ctx, "arena."+r.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("arena.path", r.path),
		),
	)
	defer span.End()

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", r.op, err)
	}
	req.Header.Set(SessionHeader, session.Token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordVendorRequest(r.op, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", r.op, ctxErr)
		}
		return &arenaerrors.UpstreamError{Vendor: vendorName, Message: r.op + " request failed", Cause: err}
	}
	defer resp.Body.Close()

	metrics.RecordVendorRequest(r.op, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &arenaerrors.UpstreamError{Vendor: vendorName, StatusCode: resp.StatusCode, Message: "reading response", Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// Only drop the token this call used; a concurrent login may
		// already have replaced it.
		c.session.CompareAndSwap(session, nil)
		_, msg := parseVendorError(resp.StatusCode, payload)
		span.SetStatus(codes.Error, "session expired")
		c.logger.WarnContext(ctx, "vendor session rejected", "op", r.op)
		return &arenaerrors.SessionExpiredError{Message: msg}

	case resp.StatusCode == http.StatusNotFound:
		return &arenaerrors.NotFoundError{Resource: r.resource, ID: r.id}

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return newUpstreamError(resp.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		span.RecordError(err)
		return &arenaerrors.UpstreamError{Vendor: vendorName, StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}
	return nil
}

// getList fetches a list endpoint and normalizes each result. A vendor 404
// yields an empty list: an item with no BOM and an unknown item look the same
// to list callers.
func getList[W any, R any](ctx context.Context, c *Client, r request, convert func(W) R) ([]R, error) {
	var resp listResponse[W]
	if err := c.get(ctx, r, &resp); err != nil {
		var nf *arenaerrors.NotFoundError
		if errors.As(err, &nf) {
			return []R{}, nil
		}
		return nil, err
	}

	out := make([]R, 0, len(resp.Results))
	for _, w := range resp.Results {
		out = append(out, convert(w))
	}
	return out, nil
}

func newUpstreamError(status int, body []byte) *arenaerrors.UpstreamError {
	code, msg := parseVendorError(status, body)
	return &arenaerrors.UpstreamError{
		Vendor:     vendorName,
		StatusCode: status,
		Code:       code,
		Message:    msg,
	}
}

// parseVendorError extracts the vendor error code and message. The raw body
// is never returned; unparseable bodies get a generic message for the status.
func parseVendorError(status int, body []byte) (int, string) {
	var parsed vendorErrorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil && len(parsed.Errors) > 0 {
		var msgs []string
		for _, e := range parsed.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return parsed.Errors[0].Code, strings.Join(msgs, "; ")
		}
	}
	return 0, defaultMessage(status)
}

// defaultMessage returns a default error message for a status code.
func defaultMessage(status int) string {
	switch status {
	case 400:
		return "Bad request - check your input parameters"
	case 401:
		return "Unauthorized - the session is no longer valid"
	case 403:
		return "Forbidden - the account cannot access this resource"
	case 404:
		return "Not found - the requested resource does not exist"
	case 429:
		return "Rate limit exceeded - too many requests"
	case 500:
		return "Internal server error"
	case 502:
		return "Bad gateway"
	case 503:
		return "Service unavailable"
	default:
		return fmt.Sprintf("Request failed with status %d", status)
	}
}
