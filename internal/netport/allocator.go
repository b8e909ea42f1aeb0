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
	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// Allocator scans the configured range for a bindable port. The scan is
// deterministic (lowest-numbered available port in scan order) and bounded:
// exactly Range.Size() probes, then failure. Never an unconditioned loop.
type Allocator struct {
	rng    Range
	prober Prober
}

// NewAllocator creates an allocator over rng using prober.
func NewAllocator(rng Range, prober Prober) *Allocator {
	return &Allocator{rng: rng, prober: prober}
}

// Range returns the allocation range.
func (a *Allocator) Range() Range {
	return a.rng
}

// Allocate returns the first available port scanning from the start of
// the range. Fails with *errors.RangeExhaustedError after Range.Size()
// probes with no success.
func (a *Allocator) Allocate() (int, error) {
	return a.AllocateFrom(a.rng.Start)
}

// AllocateFrom scans starting at origin, advancing by one and wrapping
// to Range.Start after Range.End. An origin outside the range is clamped
// to Range.Start.
func (a *Allocator) AllocateFrom(origin int) (int, error) {
	if !a.rng.Contains(origin) {
		origin = a.rng.Start
	}

	size := a.rng.Size()
	for i := 0; i < size; i++ {
		port := origin + i
		if port > a.rng.End {
			port -= size
		}
		if a.prober.Available(port) {
			return port, nil
		}
	}

	return 0, &wardenerrors.RangeExhaustedError{
		Start:  a.rng.Start,
		End:    a.rng.End,
		Probes: size,
	}
}
