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
	"github.com/tombee/warden/internal/supervisor"
)

// NewRestartCommand creates the restart command.
func NewRestartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the managed server",
		Long: `Stop the managed server, wait for it to settle, then start it again.

The restarted server reuses its previous port when the port is still
free, so clients holding the old address keep working. Restarting a
stopped server is equivalent to a plain start.`,
		Example: `  # Restart the server
  warden restart`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestart()
		},
	}
}

func runRestart() error {
	ctrl, _, err := newController()
	if err != nil {
		return err
	}
	if shared.GetQuiet() || shared.GetJSON() {
		ctrl = ctrl.WithOutput(io.Discard)
	}

	res, err := ctrl.Restart(supervisor.StartOptions{})
	if err != nil {
		return shared.WrapActionError("failed to restart server", err)
	}

	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"pid":  res.PID,
			"port": res.Port,
		})
	}
	if shared.GetQuiet() {
		return nil
	}

	fmt.Println(shared.RenderOK(fmt.Sprintf("Server restarted (PID %d, port %d)", res.PID, res.Port)))
	return nil
}
