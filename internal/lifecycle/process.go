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
	"syscall"
	"time"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// ProcessTable abstracts liveness probing and signal delivery so the
// controller can be tested against a fake process table instead of
// real OS processes.
type ProcessTable interface {
	// Alive reports whether the host OS considers pid signalable.
	// False for pid <= 0.
	Alive(pid int) bool

	// Signal delivers sig to pid.
	Signal(pid int, sig syscall.Signal) error
}

// OSProcessTable is the real host-OS implementation of ProcessTable.
type OSProcessTable struct{}

// Alive checks process existence by sending signal 0, which performs the
// permission and existence checks without delivering anything.
func (OSProcessTable) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}

// Signal sends a signal to the given process.
func (OSProcessTable) Signal(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("failed to send signal %v to process %d: %w", sig, pid, err)
	}

	return nil
}

// WaitForExit polls the process table until pid is gone, checking every
// interval. Returns a *errors.TimeoutError if the process is still alive
// when the deadline passes; callers decide whether that is fatal.
func WaitForExit(table ProcessTable, pid int, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if !table.Alive(pid) {
			return nil
		}
		time.Sleep(interval)
	}

	if !table.Alive(pid) {
		return nil
	}

	return &wardenerrors.TimeoutError{Operation: "process exit", Duration: timeout}
}

// ProcessCommand returns the command line of the process, for display.
func ProcessCommand(pid int) (string, error) {
	return processCommand(pid)
}
