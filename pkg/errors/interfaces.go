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

import stderrors "errors"

// ErrorClassifier defines methods for programmatic error handling.
// The gateway uses it to label metrics and to tell callers whether a
// failed tool call is worth retrying.
type ErrorClassifier interface {
	error

	// ErrorType returns a string identifying the error category.
	// Examples: "validation", "not_found", "session_expired", "upstream"
	ErrorType() string

	// IsRetryable returns true if the caller may retry the operation.
	IsRetryable() bool
}

// Classify returns the ErrorType of the first ErrorClassifier in err's
// chain, or "internal" when none is found.
func Classify(err error) string {
	var classifier ErrorClassifier
	if stderrors.As(err, &classifier) {
		return classifier.ErrorType()
	}
	return "internal"
}

// IsRetryable reports whether err's chain contains a retryable ErrorClassifier.
func IsRetryable(err error) bool {
	var classifier ErrorClassifier
	if stderrors.As(err, &classifier) {
		return classifier.IsRetryable()
	}
	return false
}
