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

package errors

import (
	"fmt"
	"net/http"
)

// ValidationError represents user input validation failures.
// Use this for a missing or malformed tool argument. No vendor request is
// made once a ValidationError is produced.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) ErrorType() string { return "validation" }
func (e *ValidationError) IsRetryable() bool { return false }

// NotFoundError represents a resource not found error.
// Use this when the vendor has no record for a GUID.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "item", "bom", "category")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) ErrorType() string { return "not_found" }
func (e *NotFoundError) IsRetryable() bool { return false }

// AuthenticationError represents rejected vendor credentials.
// It is returned by the first login attempt and by every later call until
// the process is restarted with corrected credentials.
type AuthenticationError struct {
	// StatusCode is the HTTP status returned by the login endpoint
	StatusCode int

	// Message is the vendor's explanation, if any
	Message string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	msg := "vendor authentication failed"
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	return msg
}

func (e *AuthenticationError) ErrorType() string { return "authentication" }
func (e *AuthenticationError) IsRetryable() bool { return false }

// SessionExpiredError represents the vendor rejecting an established session.
// The session is not re-established transparently; callers may retry.
type SessionExpiredError struct {
	// Message is the vendor's explanation, if any
	Message string
}

// Error implements the error interface.
func (e *SessionExpiredError) Error() string {
	if e.Message != "" {
		return "vendor session expired: " + e.Message
	}
	return "vendor session expired"
}

func (e *SessionExpiredError) ErrorType() string { return "session_expired" }
func (e *SessionExpiredError) IsRetryable() bool { return true }

// UpstreamError represents any other non-2xx vendor response, including
// rate limiting. It carries the vendor status and message verbatim.
type UpstreamError struct {
	// Vendor is the name of the upstream API (e.g., "arena")
	Vendor string

	// StatusCode is the HTTP status code
	StatusCode int

	// Code is the vendor-specific error code, if any
	Code int

	// Message is the vendor's error message
	Message string

	// Cause is the underlying error for transport failures
	Cause error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s API error", e.Vendor)

	if e.Code > 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Code)
	}

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

func (e *UpstreamError) ErrorType() string { return "upstream" }

// IsRetryable reports whether the caller may reasonably retry. Nothing in
// this module retries on its own.
func (e *UpstreamError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 || e.Cause != nil
}

// AuthorizationError represents a caller rejected by the gateway auth gate.
type AuthorizationError struct {
	// Mode is the gateway auth mode that rejected the caller
	Mode string

	// Reason is a short machine-friendly reason (e.g., "missing_token")
	Reason string
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("unauthorized (%s): %s", e.Mode, e.Reason)
}

func (e *AuthorizationError) ErrorType() string { return "authorization" }
func (e *AuthorizationError) IsRetryable() bool { return false }

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "arena.email", "auth.token")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config error: %s", e.Reason)
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
