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

package errors

import (
	"fmt"
	"time"
)

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "ports.start", "server.command")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// SpawnError represents a failure to create the supervised server process.
// Returned when no process handle was obtained; the PID registry is never
// written when this error occurs.
type SpawnError struct {
	// Command is the command that failed to start
	Command string

	// Cause is the underlying error from the OS
	Cause error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Command, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *SpawnError) Unwrap() error {
	return e.Cause
}

// RangeExhaustedError represents a port allocation scan that found no
// bindable port in the configured range.
type RangeExhaustedError struct {
	// Start and End are the inclusive bounds of the scanned range
	Start int
	End   int

	// Probes is how many ports were tested (always the range size)
	Probes int
}

// Error implements the error interface.
func (e *RangeExhaustedError) Error() string {
	return fmt.Sprintf("no available port in range %d-%d after %d probes", e.Start, e.End, e.Probes)
}

// TimeoutError represents operation timeouts.
// Callers decide whether a timeout is fatal; the supervisor treats exit-wait
// and port-release timeouts as warnings, not failures.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "process exit", "port release")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
