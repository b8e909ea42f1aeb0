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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	wardenerrors "github.com/tombee/warden/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default timing parameters for the supervisor's bounded waits.
const (
	// DefaultExitTimeout bounds how long stop waits for the child to exit.
	DefaultExitTimeout = 10 * time.Second

	// DefaultReleaseTimeout bounds how long stop waits for the OS to
	// release the child's listening port after exit.
	DefaultReleaseTimeout = 5 * time.Second

	// DefaultPollInterval is the fixed interval for all polling waits.
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultSettleDelay is the pause between stop and start in restart.
	DefaultSettleDelay = 500 * time.Millisecond
)

// Default port allocation range. High registered-port territory that avoids
// well-known services and the ephemeral range on common Linux defaults.
const (
	DefaultPortRangeStart = 41000
	DefaultPortRangeEnd   = 41999
)

// Config represents the complete warden configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Ports      PortsConfig      `yaml:"ports"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig describes the supervised server process. Warden treats the
// server as opaque: it must bind the port exported in the PORT environment
// variable and exit on SIGTERM.
type ServerConfig struct {
	// Command is the executable to spawn. Required.
	Command string `yaml:"command"`

	// Args are additional arguments passed to the command.
	Args []string `yaml:"args,omitempty"`

	// LogFile is where the server's stdout/stderr are appended.
	// Default: <state_dir>/server.log
	LogFile string `yaml:"log_file,omitempty"`
}

// PortsConfig is the closed interval of TCP ports eligible for allocation.
type PortsConfig struct {
	// Start is the first candidate port (inclusive). Default: 41000.
	Start int `yaml:"start"`

	// End is the last candidate port (inclusive). Default: 41999.
	End int `yaml:"end"`
}

// Size returns the number of ports in the range.
func (p PortsConfig) Size() int {
	return p.End - p.Start + 1
}

// Contains reports whether port falls within the configured range.
func (p PortsConfig) Contains(port int) bool {
	return port >= p.Start && port <= p.End
}

// SupervisorConfig holds supervisor state paths and wait tuning.
type SupervisorConfig struct {
	// StateDir is where the PID file, port file and logs live.
	// Default: ~/.warden
	StateDir string `yaml:"state_dir,omitempty"`

	// PIDFile overrides the PID file path. Default: <state_dir>/warden.pid
	PIDFile string `yaml:"pid_file,omitempty"`

	// PortFile overrides the port file path. Default: <state_dir>/warden.port
	PortFile string `yaml:"port_file,omitempty"`

	// EventLog overrides the lifecycle event log path.
	// Default: <state_dir>/events.log
	EventLog string `yaml:"event_log,omitempty"`

	// ExitTimeout bounds the process-exit wait during stop.
	ExitTimeout time.Duration `yaml:"exit_timeout,omitempty"`

	// ReleaseTimeout bounds the port-release wait during stop.
	ReleaseTimeout time.Duration `yaml:"release_timeout,omitempty"`

	// PollInterval is the fixed interval for the polling waits.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// SettleDelay is the pause between stop and start during restart.
	SettleDelay time.Duration `yaml:"settle_delay,omitempty"`
}

// LogConfig configures warden's own structured logging.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error).
	Level string `yaml:"level,omitempty"`

	// Format sets the output format (json, text).
	Format string `yaml:"format,omitempty"`
}

// DefaultPath returns the default config file location,
// honoring XDG_CONFIG_HOME when set.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "warden", "config.yaml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "warden.yaml"
	}
	return filepath.Join(homeDir, ".config", "warden", "config.yaml")
}

// Load reads the configuration from path, applies defaults and validates.
// An empty path falls back to WARDEN_CONFIG, then DefaultPath(). A missing
// file is not an error: defaults are returned (the server command can still
// come from WARDEN_SERVER_COMMAND).
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("WARDEN_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, &wardenerrors.ConfigError{
				Reason: fmt.Sprintf("cannot read %s", path),
				Cause:  err,
			}
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &wardenerrors.ConfigError{
				Reason: fmt.Sprintf("cannot parse %s", path),
				Cause:  err,
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the loaded config.
// Environment always wins over the file.
func (c *Config) applyEnv() {
	if cmd := os.Getenv("WARDEN_SERVER_COMMAND"); cmd != "" {
		c.Server.Command = cmd
	}
	if dir := os.Getenv("WARDEN_STATE_DIR"); dir != "" {
		c.Supervisor.StateDir = dir
	}
}

// applyDefaults fills in zero values after file and env are applied.
func (c *Config) applyDefaults() {
	if c.Ports.Start == 0 {
		c.Ports.Start = DefaultPortRangeStart
	}
	if c.Ports.End == 0 {
		c.Ports.End = DefaultPortRangeEnd
	}

	if c.Supervisor.StateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			c.Supervisor.StateDir = ".warden"
		} else {
			c.Supervisor.StateDir = filepath.Join(homeDir, ".warden")
		}
	}
	c.Supervisor.StateDir = expandHome(c.Supervisor.StateDir)

	if c.Supervisor.PIDFile == "" {
		c.Supervisor.PIDFile = filepath.Join(c.Supervisor.StateDir, "warden.pid")
	}
	if c.Supervisor.PortFile == "" {
		c.Supervisor.PortFile = filepath.Join(c.Supervisor.StateDir, "warden.port")
	}
	if c.Supervisor.EventLog == "" {
		c.Supervisor.EventLog = filepath.Join(c.Supervisor.StateDir, "events.log")
	}
	if c.Server.LogFile == "" {
		c.Server.LogFile = filepath.Join(c.Supervisor.StateDir, "server.log")
	}

	if c.Supervisor.ExitTimeout == 0 {
		c.Supervisor.ExitTimeout = DefaultExitTimeout
	}
	if c.Supervisor.ReleaseTimeout == 0 {
		c.Supervisor.ReleaseTimeout = DefaultReleaseTimeout
	}
	if c.Supervisor.PollInterval == 0 {
		c.Supervisor.PollInterval = DefaultPollInterval
	}
	if c.Supervisor.SettleDelay == 0 {
		c.Supervisor.SettleDelay = DefaultSettleDelay
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration for contradictions. The server command
// is checked at spawn time, not here, so read-only actions (stop, status)
// work without one.
func (c *Config) Validate() error {
	if c.Ports.Start <= 0 || c.Ports.Start > 65535 {
		return &wardenerrors.ConfigError{
			Key:    "ports.start",
			Reason: fmt.Sprintf("port %d outside 1-65535", c.Ports.Start),
		}
	}
	if c.Ports.End <= 0 || c.Ports.End > 65535 {
		return &wardenerrors.ConfigError{
			Key:    "ports.end",
			Reason: fmt.Sprintf("port %d outside 1-65535", c.Ports.End),
		}
	}
	if c.Ports.End < c.Ports.Start {
		return &wardenerrors.ConfigError{
			Key:    "ports.end",
			Reason: fmt.Sprintf("end %d is below start %d", c.Ports.End, c.Ports.Start),
		}
	}
	if c.Supervisor.PollInterval <= 0 {
		return &wardenerrors.ConfigError{
			Key:    "supervisor.poll_interval",
			Reason: "must be positive",
		}
	}
	return nil
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}
	return path
}
