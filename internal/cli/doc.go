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

/*
Package cli builds the arena-mcp command tree.

# Command Tree

	arena-mcp
	├── serve         Run the MCP server (stdio, http, sse)
	├── check         Validate configuration and try one vendor login
	├── credentials   Store or delete the Arena password in the keychain
	│   ├── set
	│   └── delete
	├── version       Show version
	└── help          Show help, optionally as JSON

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	if err := cli.NewRootCommand().Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

	--verbose, -v    Log at debug level
	--json           Output in JSON format
	--config         Path to config file
*/
package cli
