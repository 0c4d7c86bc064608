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
Package cli provides the root command for the sqlguard CLI.

The command tree is:

	sqlguard
	├── exec        Execute one statement under limits
	├── check       Sanitize and policy-check statements without connecting
	├── mcp-server  Serve the SQL tools over MCP stdio
	├── version     Show version
	└── help        Show help

# Global Flags

	--verbose, -v    Enable debug logging
	--quiet, -q      Only log errors
	--json           Output in JSON format
	--trace          Print execution spans to stderr
	--config         Path to config file

# Exit Codes

  - 0: success
  - 1: database fault or unexpected error
  - 2: invalid input
  - 3: policy violation
  - 4: configuration error
*/
package cli
