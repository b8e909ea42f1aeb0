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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event represents a supervisor lifecycle event (start, stop, etc.).
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Event        string    `json:"event"`
	InvocationID string    `json:"invocation_id,omitempty"`
	PID          int       `json:"pid,omitempty"`
	Port         int       `json:"port,omitempty"`
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// EventLog appends lifecycle events to a JSON-lines file. Each CLI
// invocation tags its events with an invocation ID so interleaved
// invocations can be told apart.
type EventLog struct {
	logPath      string
	invocationID string
}

// NewEventLog creates an event log writing to logPath.
func NewEventLog(logPath, invocationID string) *EventLog {
	return &EventLog{
		logPath:      logPath,
		invocationID: invocationID,
	}
}

// LogStart logs a start action being initiated.
func (l *EventLog) LogStart() error {
	return l.writeEvent(Event{
		Event:   "start",
		Success: true,
		Message: "server start initiated",
	})
}

// LogStartSuccess logs a successful server start with PID and port.
func (l *EventLog) LogStartSuccess(pid, port int) error {
	return l.writeEvent(Event{
		Event:   "start_success",
		PID:     pid,
		Port:    port,
		Success: true,
		Message: fmt.Sprintf("server started on port %d", port),
	})
}

// LogStartFailure logs a failed server start.
func (l *EventLog) LogStartFailure(err error) error {
	return l.writeEvent(Event{
		Event:   "start_failure",
		Success: false,
		Message: "server failed to start",
		Error:   err.Error(),
	})
}

// LogStop logs a stop action being initiated.
func (l *EventLog) LogStop(pid int) error {
	return l.writeEvent(Event{
		Event:   "stop",
		PID:     pid,
		Success: true,
		Message: "server stop initiated",
	})
}

// LogStopSuccess logs a completed stop.
func (l *EventLog) LogStopSuccess(pid int, duration time.Duration) error {
	return l.writeEvent(Event{
		Event:   "stop_success",
		PID:     pid,
		Success: true,
		Message: fmt.Sprintf("server stopped (duration: %v)", duration),
	})
}

// LogStopTimeout logs a stop whose exit or port-release wait expired.
// The action still completes; the record reflects intent, not certainty.
func (l *EventLog) LogStopTimeout(pid int, err error) error {
	return l.writeEvent(Event{
		Event:   "stop_timeout",
		PID:     pid,
		Success: true,
		Message: "stop completed with expired wait",
		Error:   err.Error(),
	})
}

// LogStalePID logs detection of a stale PID file.
func (l *EventLog) LogStalePID(pid int, reason string) error {
	return l.writeEvent(Event{
		Event:   "stale_pid_detected",
		PID:     pid,
		Success: true,
		Message: fmt.Sprintf("stale PID file detected and removed: %s", reason),
	})
}

// LogAlreadyRunning logs that the server is already running.
func (l *EventLog) LogAlreadyRunning(pid int) error {
	return l.writeEvent(Event{
		Event:   "already_running",
		PID:     pid,
		Success: true,
		Message: "server already running",
	})
}

// writeEvent appends a lifecycle event to the log file.
func (l *EventLog) writeEvent(event Event) error {
	event.Timestamp = time.Now()
	event.InvocationID = l.invocationID

	logDir := filepath.Dir(l.logPath)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}
