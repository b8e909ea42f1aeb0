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

package main

import (
	"github.com/tombee/warden/internal/cli"
	configcmd "github.com/tombee/warden/internal/commands/config"
	"github.com/tombee/warden/internal/commands/server"
	versioncmd "github.com/tombee/warden/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set version information from build-time ldflags
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// Lifecycle commands
	rootCmd.AddCommand(server.NewStartCommand())
	rootCmd.AddCommand(server.NewStopCommand())
	rootCmd.AddCommand(server.NewRestartCommand())
	rootCmd.AddCommand(server.NewStatusCommand())

	// Configuration and version commands
	rootCmd.AddCommand(configcmd.NewConfigCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
