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

package supervisor

// State is the supervisor's view of the supervised server. There is no
// persisted state machine object: every CLI invocation re-derives the
// current state from the PID registry and a liveness probe. Because of
// that, a fresh invocation only ever observes Stopped or Running; the
// transitional states name the phases a single action passes through and
// appear only as labels in that action's logs.
type State int

const (
	// Stopped means no live PID record exists.
	Stopped State = iota
	// Starting is the in-flight phase of a start (port chosen, not yet
	// spawned). Never derived from the registry.
	Starting
	// Running means the PID record points at a live process.
	Running
	// Stopping is the in-flight phase of a stop (signal sent, waiting for
	// exit). Never derived from the registry.
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}
