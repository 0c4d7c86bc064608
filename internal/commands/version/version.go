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
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/sqlguard/internal/commands/shared"
	"github.com/tombee/sqlguard/internal/sqlexec"
)

// VersionInfo contains version metadata
type VersionInfo struct {
	shared.JSONResponse
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"build_date"`
	GoVersion string   `json:"go_version"`
	Drivers   []string `json:"drivers"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, build date and the database drivers compiled into sqlguard.`,
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	v, c, b := shared.GetVersion()

	info := VersionInfo{
		JSONResponse: shared.NewJSONResponse("version"),
		Version:      v,
		Commit:       c,
		BuildDate:    b,
		GoVersion:    runtime.Version(),
		Drivers:      sqlexec.DriverNames(),
	}

	if shared.GetJSON() {
		return shared.EmitJSONTo(cmd.OutOrStdout(), info)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sqlguard version %s\n", info.Version)
	fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  build date: %s\n", info.BuildDate)
	fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
	fmt.Fprintf(out, "  drivers:    %s\n", strings.Join(info.Drivers, ", "))

	return nil
}
