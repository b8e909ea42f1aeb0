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
	"strings"

	"github.com/spf13/cobra"
	"github.com/tombee/warden/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for warden
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - local background server supervisor",
		Long: `Warden supervises a single local background server: it starts the
server detached on a port drawn from a configured range, stops it with
a bounded graceful wait, and restarts it reusing the previous port.

There is no resident daemon. Every invocation re-derives the server's
state from on-disk PID and port records, so start and stop are safe to
repeat.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	// Get flag pointers from shared package
	verbose, quiet, json, config := shared.RegisterFlagPointers()

	// Add global flags
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/warden/config.yaml)")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	// Cobra reports unrecognized subcommands as plain errors; give them the
	// invalid-action exit code instead of the generic failure code.
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		err = shared.NewInvalidActionError(err.Error())
	}
	shared.HandleExitError(err)
}
