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
	"fmt"
	"net"
	"testing"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// fakeProber reports availability from a fixed set and counts probes.
type fakeProber struct {
	busy   map[int]bool
	probes int
}

func (p *fakeProber) Available(port int) bool {
	p.probes++
	return !p.busy[port]
}

func TestAllocator_Allocate(t *testing.T) {
	t.Run("returns lowest available port in scan order", func(t *testing.T) {
		prober := &fakeProber{busy: map[int]bool{41000: true, 41001: true}}
		alloc := NewAllocator(Range{Start: 41000, End: 41002}, prober)

		port, err := alloc.Allocate()
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		if port != 41002 {
			t.Errorf("Allocate() = %d, want 41002", port)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			prober := &fakeProber{busy: map[int]bool{41001: true}}
			alloc := NewAllocator(Range{Start: 41000, End: 41004}, prober)

			port, err := alloc.Allocate()
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}
			if port != 41000 {
				t.Errorf("Allocate() = %d, want 41000", port)
			}
		}
	})

	t.Run("fully occupied range fails after exactly N probes", func(t *testing.T) {
		rng := Range{Start: 41000, End: 41004}
		busy := make(map[int]bool)
		for p := rng.Start; p <= rng.End; p++ {
			busy[p] = true
		}
		prober := &fakeProber{busy: busy}
		alloc := NewAllocator(rng, prober)

		_, err := alloc.Allocate()

		var exhausted *wardenerrors.RangeExhaustedError
		if !wardenerrors.As(err, &exhausted) {
			t.Fatalf("Allocate() error = %v, want RangeExhaustedError", err)
		}
		if prober.probes != rng.Size() {
			t.Errorf("probes = %d, want %d", prober.probes, rng.Size())
		}
		if exhausted.Probes != rng.Size() {
			t.Errorf("Probes field = %d, want %d", exhausted.Probes, rng.Size())
		}
	})
}

func TestAllocator_AllocateFrom(t *testing.T) {
	t.Run("wraps past the end of the range", func(t *testing.T) {
		prober := &fakeProber{busy: map[int]bool{41003: true, 41004: true}}
		alloc := NewAllocator(Range{Start: 41000, End: 41004}, prober)

		port, err := alloc.AllocateFrom(41003)
		if err != nil {
			t.Fatalf("AllocateFrom() error = %v", err)
		}
		if port != 41000 {
			t.Errorf("AllocateFrom(41003) = %d, want 41000 after wraparound", port)
		}
	})

	t.Run("clamps out-of-range origin to range start", func(t *testing.T) {
		prober := &fakeProber{busy: map[int]bool{}}
		alloc := NewAllocator(Range{Start: 41000, End: 41002}, prober)

		port, err := alloc.AllocateFrom(99999)
		if err != nil {
			t.Fatalf("AllocateFrom() error = %v", err)
		}
		if port != 41000 {
			t.Errorf("AllocateFrom(99999) = %d, want 41000", port)
		}
	})
}

func TestAllocator_RealListeners(t *testing.T) {
	// Bind two listeners on consecutive OS-assigned ports' neighborhood by
	// grabbing whatever the OS gives and building the range around them.
	l1, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Skipf("cannot bind test listener: %v", err)
	}
	defer l1.Close()

	bound := l1.Addr().(*net.TCPAddr).Port
	rng := Range{Start: bound, End: bound + 2}
	alloc := NewAllocator(rng, TCPProber{})

	port, err := alloc.Allocate()
	if err != nil {
		// Neighbors may be occupied by other processes on a busy host
		t.Skipf("no free port near %d: %v", bound, err)
	}

	if port == bound {
		t.Errorf("Allocate() returned externally bound port %d", bound)
	}
	if !rng.Contains(port) {
		t.Errorf("Allocate() = %d, outside range %d-%d", port, rng.Start, rng.End)
	}

	// The returned port must actually be bindable right now
	l2, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		t.Errorf("allocated port %d not bindable: %v", port, err)
	} else {
		l2.Close()
	}
}
