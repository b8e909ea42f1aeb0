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
	"sync"
	"testing"
	"time"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// releasingProber reports a port busy until released.
type releasingProber struct {
	mu   sync.Mutex
	busy bool
}

func (p *releasingProber) Available(int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.busy
}

func (p *releasingProber) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = false
}

func TestWaitForRelease(t *testing.T) {
	t.Run("returns nil once the port frees up", func(t *testing.T) {
		prober := &releasingProber{busy: true}

		go func() {
			time.Sleep(30 * time.Millisecond)
			prober.release()
		}()

		err := WaitForRelease(prober, 41000, 2*time.Second, 10*time.Millisecond)
		if err != nil {
			t.Errorf("WaitForRelease() error = %v, want nil", err)
		}
	})

	t.Run("returns nil immediately for a free port", func(t *testing.T) {
		prober := &releasingProber{}

		err := WaitForRelease(prober, 41000, time.Second, 10*time.Millisecond)
		if err != nil {
			t.Errorf("WaitForRelease() error = %v, want nil", err)
		}
	})

	t.Run("returns timeout error when the port stays bound", func(t *testing.T) {
		prober := &releasingProber{busy: true}

		err := WaitForRelease(prober, 41000, 100*time.Millisecond, 10*time.Millisecond)

		var timeoutErr *wardenerrors.TimeoutError
		if !wardenerrors.As(err, &timeoutErr) {
			t.Fatalf("WaitForRelease() error = %v, want TimeoutError", err)
		}
		if timeoutErr.Operation != "port release" {
			t.Errorf("Operation = %q", timeoutErr.Operation)
		}
	})
}

func TestTCPProber(t *testing.T) {
	t.Run("invalid port is not available", func(t *testing.T) {
		if (TCPProber{}).Available(-1) {
			t.Error("Available(-1) = true, want false")
		}
	})
}
