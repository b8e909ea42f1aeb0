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

package lifecycle

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// SpawnSpec describes the supervised process to start.
type SpawnSpec struct {
	// Command is the executable to run.
	Command string

	// Args are the arguments passed to the command.
	Args []string

	// Env is extra environment appended to the parent environment.
	// Warden uses this to export PORT to the server.
	Env []string

	// LogFile receives the child's stdout and stderr in detached mode.
	LogFile string
}

// Child is a handle to a spawned supervised process.
type Child struct {
	// PID of the spawned process.
	PID int

	wait func() error
}

// NewChild builds a handle for a spawned process. wait is nil for detached
// children the supervisor holds no wait handle on.
func NewChild(pid int, wait func() error) *Child {
	return &Child{PID: pid, wait: wait}
}

// Wait blocks until the child exits. For detached children Wait returns
// immediately with nil: the supervisor does not hold a wait handle on a
// process that outlives it.
func (c *Child) Wait() error {
	if c.wait == nil {
		return nil
	}
	return c.wait()
}

// Spawner starts the supervised process. Implementations differ in whether
// the child is detached (background mode) or attached (foreground mode);
// tests substitute a fake that records the spec and returns a synthetic PID.
type Spawner interface {
	Spawn(spec SpawnSpec) (*Child, error)
}

// DetachedSpawner spawns the server as a detached background process.
// The process:
//   - Runs in its own process group (not killed when parent exits)
//   - Has stdin closed, stdout/stderr redirected to spec.LogFile
//   - Has a new session ID (fully detached)
type DetachedSpawner struct{}

// NewDetachedSpawner creates a spawner for background mode.
func NewDetachedSpawner() *DetachedSpawner {
	return &DetachedSpawner{}
}

// Spawn starts the detached process and returns its handle.
func (s *DetachedSpawner) Spawn(spec SpawnSpec) (*Child, error) {
	logDir := filepath.Dir(spec.LogFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(spec.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Env = append(os.Environ(), spec.Env...)

	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil

	// New session: the server gets its own process group and no controlling
	// terminal, so it must not die with the CLI. Setsid alone does this;
	// adding Setpgid would fail with EPERM on a fresh session leader.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	pid := cmd.Process.Pid

	// Release the process (don't wait for it). Safe because it is detached.
	if err := cmd.Process.Release(); err != nil {
		return &Child{PID: pid}, fmt.Errorf("process started but failed to release: %w", err)
	}

	return &Child{PID: pid}, nil
}

// ForegroundSpawner spawns the server attached to the supervisor's stdio.
// Used by start --foreground; the caller is expected to Wait on the child.
type ForegroundSpawner struct{}

// NewForegroundSpawner creates a spawner for foreground mode.
func NewForegroundSpawner() *ForegroundSpawner {
	return &ForegroundSpawner{}
}

// Spawn starts the attached process and returns its handle.
func (s *ForegroundSpawner) Spawn(spec SpawnSpec) (*Child, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Env = append(os.Environ(), spec.Env...)

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	return NewChild(cmd.Process.Pid, cmd.Wait), nil
}
