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
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// fakeTable is an in-memory process table for testing the polling waits
// without real OS processes.
type fakeTable struct {
	mu    sync.Mutex
	alive map[int]bool
	sent  []syscall.Signal
}

func newFakeTable(pids ...int) *fakeTable {
	ft := &fakeTable{alive: make(map[int]bool)}
	for _, pid := range pids {
		ft.alive[pid] = true
	}
	return ft
}

func (ft *fakeTable) Alive(pid int) bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.alive[pid]
}

func (ft *fakeTable) Signal(pid int, sig syscall.Signal) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.sent = append(ft.sent, sig)
	return nil
}

func (ft *fakeTable) kill(pid int) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	delete(ft.alive, pid)
}

func TestOSProcessTable_Alive(t *testing.T) {
	table := OSProcessTable{}

	t.Run("returns true for current process", func(t *testing.T) {
		if !table.Alive(os.Getpid()) {
			t.Error("Alive(os.Getpid()) = false, want true")
		}
	})

	t.Run("returns false for non-existent PID", func(t *testing.T) {
		// Use a very high PID that's unlikely to exist
		if table.Alive(999999) {
			t.Error("Alive(999999) = true, want false")
		}
	})

	t.Run("returns false for non-positive PIDs", func(t *testing.T) {
		if table.Alive(0) {
			t.Error("Alive(0) = true, want false")
		}
		if table.Alive(-1) {
			t.Error("Alive(-1) = true, want false")
		}
	})
}

func TestOSProcessTable_Signal(t *testing.T) {
	table := OSProcessTable{}

	t.Run("signal 0 reaches current process", func(t *testing.T) {
		if err := table.Signal(os.Getpid(), syscall.Signal(0)); err != nil {
			t.Errorf("Signal() error = %v", err)
		}
	})

	t.Run("returns error for non-existent process", func(t *testing.T) {
		if err := table.Signal(999999, syscall.SIGTERM); err == nil {
			t.Error("Signal() to non-existent process succeeded, want error")
		}
	})
}

func TestWaitForExit(t *testing.T) {
	t.Run("returns nil once the process is gone", func(t *testing.T) {
		ft := newFakeTable(42)

		go func() {
			time.Sleep(30 * time.Millisecond)
			ft.kill(42)
		}()

		err := WaitForExit(ft, 42, 2*time.Second, 10*time.Millisecond)
		if err != nil {
			t.Errorf("WaitForExit() error = %v, want nil", err)
		}
	})

	t.Run("returns nil immediately for a dead process", func(t *testing.T) {
		ft := newFakeTable()

		err := WaitForExit(ft, 42, time.Second, 10*time.Millisecond)
		if err != nil {
			t.Errorf("WaitForExit() error = %v, want nil", err)
		}
	})

	t.Run("returns timeout error for a process that never exits", func(t *testing.T) {
		ft := newFakeTable(42)

		err := WaitForExit(ft, 42, 100*time.Millisecond, 10*time.Millisecond)

		var timeoutErr *wardenerrors.TimeoutError
		if !wardenerrors.As(err, &timeoutErr) {
			t.Fatalf("WaitForExit() error = %v, want TimeoutError", err)
		}
		if timeoutErr.Operation != "process exit" {
			t.Errorf("Operation = %q", timeoutErr.Operation)
		}
	})
}
