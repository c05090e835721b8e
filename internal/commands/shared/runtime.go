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
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/tombee/arena-mcp/internal/config"
	arenalog "github.com/tombee/arena-mcp/internal/log"
	"github.com/tombee/arena-mcp/internal/secrets"
)

// LoadConfig loads configuration from the --config path, the environment
// and the keychain.
func LoadConfig(ctx context.Context) (*config.Config, error) {
	return LoadConfigWithStore(ctx, secrets.NewKeychain())
}

// LoadConfigWithStore is LoadConfig with an explicit secret store.
func LoadConfigWithStore(ctx context.Context, store secrets.Store) (*config.Config, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, NewConfigError("failed to load configuration", err)
	}
	if err := cfg.ResolveSecrets(ctx, store); err != nil {
		return nil, NewCredentialError("failed to read vendor password", err)
	}
	return cfg, nil
}

// NewLogger builds the process logger from cfg. It always writes to w, which
// is stderr for serve so that stdio framing on stdout stays clean.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := cfg.Log.Level
	if GetVerbose() {
		level = "debug"
	}
	return arenalog.New(&arenalog.Config{
		Level:     level,
		Format:    arenalog.Format(cfg.Log.Format),
		Output:    w,
		AddSource: cfg.Log.AddSource,
	})
}
