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

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tombee/warden/internal/commands/shared"
	"github.com/tombee/warden/internal/lifecycle"
	"github.com/tombee/warden/internal/supervisor"
)

// NewStartCommand creates the start command.
func NewStartCommand() *cobra.Command {
	var foreground bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the managed server",
		Long: `Start the managed server in the background.

By default, the server is spawned detached and a PID file records the
running instance. Use --foreground to run it in the current terminal.

The start command is idempotent: if the server is already running, it
exits successfully without starting a second instance.`,
		Example: `  # Start the server in the background
  warden start

  # Run in the foreground (for systemd/docker)
  warden start --foreground

  # Start with an alternate config file
  warden --config ./warden.yaml start`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(foreground)
		},
	}

	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run the server in the current terminal")

	return cmd
}

func runStart(foreground bool) error {
	ctrl, _, err := newController()
	if err != nil {
		return err
	}
	if foreground {
		// The default spawner detaches; an attached child is what makes the
		// foreground wait (and signal forwarding) mean anything.
		ctrl = ctrl.WithSpawner(lifecycle.NewForegroundSpawner())
	}
	if shared.GetQuiet() || shared.GetJSON() {
		ctrl = ctrl.WithOutput(io.Discard)
	}

	res, err := ctrl.Start(supervisor.StartOptions{Foreground: foreground})
	if err != nil {
		return shared.WrapActionError("failed to start server", err)
	}

	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"already_running": res.AlreadyRunning,
			"pid":             res.PID,
			"port":            res.Port,
		})
	}
	if shared.GetQuiet() {
		return nil
	}

	if res.AlreadyRunning {
		fmt.Println(shared.RenderOK(fmt.Sprintf("Server already running (PID %d)", res.PID)))
		return nil
	}
	if foreground {
		fmt.Println(shared.RenderOK("Server exited"))
		return nil
	}
	fmt.Println(shared.RenderOK(fmt.Sprintf("Server started (PID %d, port %d)", res.PID, res.Port)))
	return nil
}
