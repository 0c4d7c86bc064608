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

// Package shared holds flags, exit codes and output helpers used by every
// sqlguard command.
package shared

// Global flag values - set by root command
var (
	verboseFlag bool
	quietFlag   bool
	jsonFlag    bool
	traceFlag   bool
	configFlag  string

	// Build-time version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// GlobalFlags holds pointers for the root command to bind.
type GlobalFlags struct {
	Verbose *bool
	Quiet   *bool
	JSON    *bool
	Trace   *bool
	Config  *string
}

// RegisterFlagPointers returns pointers to flag variables for binding.
func RegisterFlagPointers() GlobalFlags {
	return GlobalFlags{
		Verbose: &verboseFlag,
		Quiet:   &quietFlag,
		JSON:    &jsonFlag,
		Trace:   &traceFlag,
		Config:  &configFlag,
	}
}

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	version = v
	commit = c
	buildDate = b
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verboseFlag
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quietFlag
}

// GetJSON returns the JSON output flag value
func GetJSON() bool {
	return jsonFlag
}

// GetTrace returns whether execution spans should be printed.
func GetTrace() bool {
	return traceFlag
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	return configFlag
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

// SetConfigPathForTest sets the config path for testing purposes
func SetConfigPathForTest(path string) {
	configFlag = path
}

// SetJSONForTest sets the JSON flag for testing purposes
func SetJSONForTest(v bool) {
	jsonFlag = v
}
