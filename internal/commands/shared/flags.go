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

// globalFlags holds the persistent flag values shared by every warden
// subcommand. The root command binds its flags to these fields.
type globalFlags struct {
	verbose bool
	quiet   bool
	json    bool
	config  string
}

// buildInfo holds version metadata injected at build time.
type buildInfo struct {
	version string
	commit  string
	date    string
}

var (
	flags globalFlags
	build = buildInfo{version: "dev", commit: "unknown", date: "unknown"}
)

// RegisterFlagPointers returns pointers to flag variables for binding.
// Called by root command to register flags.
func RegisterFlagPointers() (*bool, *bool, *bool, *string) {
	return &flags.verbose, &flags.quiet, &flags.json, &flags.config
}

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	build = buildInfo{version: v, commit: c, date: b}
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return flags.verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return flags.quiet
}

// GetJSON returns the JSON output flag value
func GetJSON() bool {
	return flags.json
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	return flags.config
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return build.version, build.commit, build.date
}

// SetConfigPathForTest sets the config path for testing purposes
func SetConfigPathForTest(path string) {
	flags.config = path
}
