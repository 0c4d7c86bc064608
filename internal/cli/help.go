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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/sqlguard/internal/commands/shared"
)

// CommandMetadata represents metadata about a command for JSON output
type CommandMetadata struct {
	Name        string         `json:"name"`
	Short       string         `json:"short"`
	Long        string         `json:"long,omitempty"`
	Usage       string         `json:"usage"`
	Flags       []FlagMetadata `json:"flags,omitempty"`
	Examples    string         `json:"examples,omitempty"`
	Subcommands []string       `json:"subcommands,omitempty"`
}

// FlagMetadata represents metadata about a flag
type FlagMetadata struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
}

// HelpResponse is the JSON response for help command
type HelpResponse struct {
	shared.JSONResponse
	Commands    []CommandMetadata `json:"commands,omitempty"`
	Command     *CommandMetadata  `json:"command,omitempty"`
	GlobalFlags []FlagMetadata    `json:"global_flags,omitempty"`
}

// NewHelpCommand creates the help command. With --json it describes the
// command tree for MCP clients and scripts.
func NewHelpCommand(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if !shared.GetJSON() {
					return rootCmd.Help()
				}
				commands := []CommandMetadata{}
				for _, c := range rootCmd.Commands() {
					if !c.Hidden {
						commands = append(commands, extractCommandMetadata(c))
					}
				}
				resp := HelpResponse{
					JSONResponse: shared.NewJSONResponse("help"),
					Commands:     commands,
					GlobalFlags:  visitFlags(rootCmd.PersistentFlags()),
				}
				return shared.EmitJSONTo(cmd.OutOrStdout(), resp)
			}

			targetCmd, _, err := rootCmd.Find(args)
			if err != nil || targetCmd == rootCmd {
				return shared.NewInvalidInputError(fmt.Sprintf("command %q not found", args[0]), nil)
			}
			if !shared.GetJSON() {
				return targetCmd.Help()
			}

			metadata := extractCommandMetadata(targetCmd)
			resp := HelpResponse{
				JSONResponse: shared.NewJSONResponse("help " + targetCmd.Name()),
				Command:      &metadata,
				GlobalFlags:  visitFlags(rootCmd.PersistentFlags()),
			}
			return shared.EmitJSONTo(cmd.OutOrStdout(), resp)
		},
	}
}

func extractCommandMetadata(cmd *cobra.Command) CommandMetadata {
	metadata := CommandMetadata{
		Name:     cmd.Name(),
		Short:    cmd.Short,
		Long:     cmd.Long,
		Usage:    cmd.UseLine(),
		Examples: cmd.Example,
	}
	if flags := visitFlags(cmd.LocalFlags()); len(flags) > 0 {
		metadata.Flags = flags
	}
	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			metadata.Subcommands = append(metadata.Subcommands, sub.Name())
		}
	}
	return metadata
}

func visitFlags(set *pflag.FlagSet) []FlagMetadata {
	flags := []FlagMetadata{}
	set.VisitAll(func(flag *pflag.Flag) {
		if flag.Hidden {
			return
		}
		flags = append(flags, FlagMetadata{
			Name:      flag.Name,
			Shorthand: flag.Shorthand,
			Usage:     flag.Usage,
			Default:   flag.DefValue,
		})
	})
	return flags
}
