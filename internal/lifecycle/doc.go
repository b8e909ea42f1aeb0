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

/*
Package lifecycle manages the supervised server's process lifecycle.

This package provides PID file management, process liveness probing and
signal delivery, detached process spawning, termination-signal forwarding,
and lifecycle event logging for warden.

# PID File Management

PID files are security-sensitive as they control which process receives
shutdown signals. The file is created with O_EXCL so two concurrent start
invocations cannot both claim ownership:

	pidFile := lifecycle.NewPIDFile("/path/to/warden.pid")
	if err := pidFile.Write(1234); err != nil {
	    // Handle error
	}
	defer pidFile.Remove()

# Process Operations

Liveness probing and signal delivery go through the ProcessTable interface
so tests can substitute a fake process table for real OS processes:

	table := lifecycle.OSProcessTable{}
	if table.Alive(pid) {
	    table.Signal(pid, syscall.SIGTERM)
	}

WaitForExit polls liveness at a fixed interval against a wall-clock
deadline; every wait in this package is bounded.
*/
package lifecycle
