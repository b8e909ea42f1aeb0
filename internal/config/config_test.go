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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wardenerrors "github.com/tombee/warden/pkg/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("WARDEN_CONFIG", "")
	t.Setenv("WARDEN_SERVER_COMMAND", "")
	t.Setenv("WARDEN_STATE_DIR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPortRangeStart, cfg.Ports.Start)
	assert.Equal(t, DefaultPortRangeEnd, cfg.Ports.End)
	assert.Equal(t, DefaultExitTimeout, cfg.Supervisor.ExitTimeout)
	assert.Equal(t, DefaultPollInterval, cfg.Supervisor.PollInterval)
	assert.NotEmpty(t, cfg.Supervisor.PIDFile)
	assert.NotEmpty(t, cfg.Supervisor.PortFile)
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv("WARDEN_SERVER_COMMAND", "")
	t.Setenv("WARDEN_STATE_DIR", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  command: /usr/local/bin/webserver
  args: ["--quiet"]
ports:
  start: 9000
  end: 9100
supervisor:
  state_dir: ` + dir + `
  exit_timeout: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/webserver", cfg.Server.Command)
	assert.Equal(t, []string{"--quiet"}, cfg.Server.Args)
	assert.Equal(t, 9000, cfg.Ports.Start)
	assert.Equal(t, 9100, cfg.Ports.End)
	assert.Equal(t, 3*time.Second, cfg.Supervisor.ExitTimeout)
	assert.Equal(t, filepath.Join(dir, "warden.pid"), cfg.Supervisor.PIDFile)
	assert.Equal(t, filepath.Join(dir, "server.log"), cfg.Server.LogFile)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  command: /bin/from-file\n"), 0600))

	t.Setenv("WARDEN_SERVER_COMMAND", "/bin/from-env")
	t.Setenv("WARDEN_STATE_DIR", dir)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/bin/from-env", cfg.Server.Command)
	assert.Equal(t, dir, cfg.Supervisor.StateDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ports: [not a map"), 0600))

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *wardenerrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{
			name:    "start above 65535",
			mutate:  func(c *Config) { c.Ports.Start = 70000 },
			wantKey: "ports.start",
		},
		{
			name:    "end below start",
			mutate:  func(c *Config) { c.Ports.Start = 9100; c.Ports.End = 9000 },
			wantKey: "ports.end",
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.Supervisor.PollInterval = -time.Second },
			wantKey: "supervisor.poll_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *wardenerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}

func TestPortsConfig(t *testing.T) {
	p := PortsConfig{Start: 41000, End: 41002}

	assert.Equal(t, 3, p.Size())
	assert.True(t, p.Contains(41000))
	assert.True(t, p.Contains(41002))
	assert.False(t, p.Contains(40999))
	assert.False(t, p.Contains(41003))
}
