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

package netport

import (
	"time"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// WaitForRelease polls the prober until port becomes bindable, checking
// every interval. OS-level port release can lag process exit, so this wait
// exists separately from the process-exit wait. Returns a
// *errors.TimeoutError when the deadline passes; callers treat it as soft.
func WaitForRelease(prober Prober, port int, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if prober.Available(port) {
			return nil
		}
		time.Sleep(interval)
	}

	if prober.Available(port) {
		return nil
	}

	return &wardenerrors.TimeoutError{Operation: "port release", Duration: timeout}
}
