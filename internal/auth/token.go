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

package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/tombee/arena-mcp/internal/config"
)

// tokenVerifier compares the presented token with a shared secret.
type tokenVerifier struct {
	secret []byte
}

func newTokenVerifier(secret string) *tokenVerifier {
	return &tokenVerifier{secret: []byte(secret)}
}

func (v *tokenVerifier) verify(_ context.Context, token string) (*Identity, error) {
	// A short or unset secret refuses everything, whatever was presented.
	if len(v.secret) < config.MinSharedSecretLength {
		return nil, reject(ReasonNotConfigured,
			fmt.Errorf("shared secret must be at least %d characters", config.MinSharedSecretLength))
	}

	if subtle.ConstantTimeCompare([]byte(token), v.secret) != 1 {
		return nil, reject(ReasonInvalidToken, nil)
	}

	return &Identity{Subject: "shared-token"}, nil
}
