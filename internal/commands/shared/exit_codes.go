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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
)

// Exit codes for arena-mcp commands
const (
	ExitSuccess         = 0
	ExitFailure         = 1
	ExitConfigError     = 2
	ExitCredentialError = 3
	ExitInterrupted     = 130 // 128 + SIGINT
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewFailure creates an error for general command failures
func NewFailure(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitFailure, Message: msg, Cause: cause}
}

// NewConfigError creates an error for unreadable or invalid configuration
func NewConfigError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitConfigError, Message: msg, Cause: cause}
}

// NewCredentialError creates an error for missing or rejected vendor credentials
func NewCredentialError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitCredentialError, Message: msg, Cause: cause}
}

// NewInterruptedError creates an error for a prompt aborted by the user
func NewInterruptedError(msg string) *ExitError {
	return &ExitError{Code: ExitInterrupted, Message: msg}
}

// HandleExitError checks if an error is an ExitError and exits with the appropriate code
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(reportError(os.Stderr, err))
}

// reportError prints err and any suggestion to w and returns the exit code.
func reportError(w io.Writer, err error) int {
	code := ExitFailure
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}

	if msg := err.Error(); msg != "" {
		fmt.Fprintln(w, "Error:", msg)
	}
	if suggestion := suggestionFor(err); suggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
	}
	return code
}

// suggestionFor walks the error chain for a hint the user can act on.
func suggestionFor(err error) string {
	var validationErr *arenaerrors.ValidationError
	if errors.As(err, &validationErr) && validationErr.Suggestion != "" {
		return validationErr.Suggestion
	}

	var configErr *arenaerrors.ConfigError
	if errors.As(err, &configErr) {
		return "run 'arena-mcp check' to see the effective configuration"
	}

	var authErr *arenaerrors.AuthenticationError
	if errors.As(err, &authErr) {
		return "update the stored password with 'arena-mcp credentials set'"
	}

	return ""
}
