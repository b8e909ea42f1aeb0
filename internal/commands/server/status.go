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
	"os"

	"github.com/spf13/cobra"
	"github.com/tombee/warden/internal/commands/shared"
	"github.com/tombee/warden/internal/supervisor"
)

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the managed server's status",
		Long: `Display the current state of the managed server.

State is re-derived on every invocation from the PID registry and a
liveness probe; there is no persistent supervisor process to query.`,
		Example: `  # Show server status
  warden status

  # Extract the port as JSON
  warden status --json | jq -r '.port'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	ctrl, _, err := newController()
	if err != nil {
		return err
	}

	st := ctrl.Status()

	if shared.GetJSON() {
		output := map[string]any{
			"state": st.State.String(),
		}
		if st.PID != 0 {
			output["pid"] = st.PID
		}
		if st.Port != 0 {
			output["port"] = st.Port
			output["port_bound"] = st.PortBound
		}
		if st.Command != "" {
			output["command"] = st.Command
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	fmt.Println(shared.Header.Render("Server Status"))
	fmt.Println()

	stateStyle := shared.StatusError
	if st.State == supervisor.Running {
		stateStyle = shared.StatusOK
	}
	fmt.Printf("%s %s\n", shared.Muted.Render("State:"), stateStyle.Render(st.State.String()))

	if st.PID != 0 {
		fmt.Printf("%s %d\n", shared.Muted.Render("PID:"), st.PID)
	}
	if st.Command != "" {
		fmt.Printf("%s %s\n", shared.Muted.Render("Command:"), st.Command)
	}
	if st.Port != 0 {
		bound := "not bound"
		if st.PortBound {
			bound = "bound"
		}
		fmt.Printf("%s %d %s\n", shared.Muted.Render("Port:"), st.Port, shared.Muted.Render("("+bound+")"))
	}

	return nil
}
