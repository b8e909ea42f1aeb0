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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tombee/warden/internal/commands/shared"
)

func TestRunStart_Foreground(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}

	dir := t.TempDir()
	cfgYAML := `
server:
  command: /bin/sh
  args: ["-c", "sleep 0.3"]
supervisor:
  state_dir: ` + dir + `
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfgYAML), 0600))

	shared.SetConfigPathForTest(path)
	defer shared.SetConfigPathForTest("")

	started := time.Now()
	require.NoError(t, runStart(true))
	elapsed := time.Since(started)

	// An attached start returns only after the child exits, and the PID
	// record must not outlive it.
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond,
		"foreground start returned before the child exited")
	assert.NoFileExists(t, filepath.Join(dir, "warden.pid"))
	assert.FileExists(t, filepath.Join(dir, "warden.port"))
}
