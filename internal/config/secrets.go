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

package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/tombee/arena-mcp/internal/secrets"
)

// ResolveSecrets fills the vendor password from the keychain when it is not
// set by file or environment. A missing keychain entry is not an error; the
// startup credential check reports it.
func (c *Config) ResolveSecrets(ctx context.Context, store secrets.Store) error {
	if c.Arena.Password != "" || c.Arena.Email == "" || store == nil {
		return nil
	}

	password, err := store.Get(ctx, c.Arena.Email)
	switch {
	case err == nil:
		c.Arena.Password = password
		return nil
	case errors.Is(err, secrets.ErrSecretNotFound), errors.Is(err, secrets.ErrBackendUnavailable):
		return nil
	default:
		return fmt.Errorf("reading vendor password from keychain: %w", err)
	}
}
