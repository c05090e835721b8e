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

package cli

import (
	"github.com/spf13/cobra"
	"github.com/tombee/arena-mcp/internal/commands/credentials"
	"github.com/tombee/arena-mcp/internal/commands/diagnostics"
	"github.com/tombee/arena-mcp/internal/commands/mcpserver"
	"github.com/tombee/arena-mcp/internal/commands/shared"
	versioncmd "github.com/tombee/arena-mcp/internal/commands/version"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arena-mcp",
		Short: "Arena PLM tools for MCP clients",
		Long: `arena-mcp exposes read-only Arena PLM lookups (items, BOMs, where-used,
revisions, files, sourcing and categories) as Model Context Protocol tools.

Run 'arena-mcp credentials set' to store the Arena password.
Run 'arena-mcp check' to verify configuration and connectivity.
Run 'arena-mcp serve' to start the server.`,
		SilenceUsage:  true,
		SilenceErrors: true, // errors are printed by HandleExitError
	}

	verbose, json, config := shared.RegisterFlagPointers()
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Log at debug level")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/arena-mcp/config.yaml)")

	cmd.AddCommand(mcpserver.NewCommand())
	cmd.AddCommand(diagnostics.NewCheckCommand())
	cmd.AddCommand(credentials.NewCommand())
	cmd.AddCommand(versioncmd.NewVersionCommand())
	cmd.SetHelpCommand(NewHelpCommand(cmd))

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
