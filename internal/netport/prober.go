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
)

// Prober tests whether a TCP port can currently be bound on the wildcard
// address. Injectable so tests can substitute a fake instead of binding
// real sockets.
type Prober interface {
	// Available reports whether a listener could be bound to port.
	// Both in-use and invalid port numbers yield false; probing never
	// returns an error for ordinary bind failures.
	Available(port int) bool
}

// TCPProber is the real implementation: it binds the port on all
// interfaces and releases it immediately. No observable side effect.
type TCPProber struct{}

// Available implements Prober.
func (TCPProber) Available(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
