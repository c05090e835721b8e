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

package version

import (
	"fmt"
	"runtime"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"github.com/tombee/arena-mcp/internal/commands/shared"
)

// VersionInfo contains version metadata
type VersionInfo struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"build_date"`
	GoVersion   string `json:"go_version"`
	MCPProtocol string `json:"mcp_protocol"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the arena-mcp version, commit, build date and the MCP protocol revision it speaks.`,
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
}

func current() VersionInfo {
	v, c, b := shared.GetVersion()
	return VersionInfo{
		Version:     v,
		Commit:      c,
		BuildDate:   b,
		GoVersion:   runtime.Version(),
		MCPProtocol: mcp.LATEST_PROTOCOL_VERSION,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := current()
	out := cmd.OutOrStdout()

	if shared.GetJSON() {
		if err := shared.EmitJSON(out, info); err != nil {
			return fmt.Errorf("failed to write version info: %w", err)
		}
		return nil
	}

	fmt.Fprintf(out, "arena-mcp version %s\n", info.Version)
	fmt.Fprintf(out, "  commit:       %s\n", info.Commit)
	fmt.Fprintf(out, "  build date:   %s\n", info.BuildDate)
	fmt.Fprintf(out, "  go:           %s\n", info.GoVersion)
	fmt.Fprintf(out, "  mcp protocol: %s\n", info.MCPProtocol)

	return nil
}
