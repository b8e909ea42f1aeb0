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
)

// NewStopCommand creates the stop command.
func NewStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the managed server",
		Long: `Stop the managed server with a graceful termination signal.

The command waits a bounded time for the process to exit and for its
port to be released. Either wait expiring produces a warning, not a
failure: the PID record is cleared and the command still succeeds.

Stopping an already-stopped server is a no-op.`,
		Example: `  # Stop the server
  warden stop

  # Stop with machine-readable output
  warden stop --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop()
		},
	}
}

func runStop() error {
	ctrl, _, err := newController()
	if err != nil {
		return err
	}
	if shared.GetQuiet() || shared.GetJSON() {
		ctrl = ctrl.WithOutput(io.Discard)
	}

	res, err := ctrl.Stop()
	if err != nil {
		return shared.WrapActionError("failed to stop server", err)
	}

	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"already_stopped":   res.AlreadyStopped,
			"pid":               res.PID,
			"exit_timed_out":    res.ExitTimedOut,
			"release_timed_out": res.ReleaseTimedOut,
		})
	}
	if shared.GetQuiet() {
		return nil
	}

	if res.AlreadyStopped {
		fmt.Println(shared.RenderOK("Server is not running"))
		return nil
	}
	if res.ExitTimedOut {
		fmt.Println(shared.RenderWarn("Server did not exit before the timeout; PID record cleared anyway"))
	}
	if res.ReleaseTimedOut {
		fmt.Println(shared.RenderWarn("Port still bound after stop; the next start will allocate a fresh one if needed"))
	}
	fmt.Println(shared.RenderOK(fmt.Sprintf("Server stopped (PID %d)", res.PID)))
	return nil
}
