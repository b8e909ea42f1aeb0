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
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Range is the closed interval of TCP ports eligible for allocation.
type Range struct {
	Start int
	End   int
}

// Size returns the number of ports in the range.
func (r Range) Size() int {
	return r.End - r.Start + 1
}

// Contains reports whether port falls within the range.
func (r Range) Contains(port int) bool {
	return port >= r.Start && port <= r.End
}

// PortFile persists the last-chosen port so restarts can reuse it.
// The file's sole content is one decimal integer. It is never actively
// deleted; stale values are revalidated against the range on every read.
// The same file doubles as the server's port discovery mechanism: the
// supervised process can read it instead of the PORT environment variable.
type PortFile struct {
	path string
	rng  Range
}

// NewPortFile creates a port registry backed by path, validating reads
// against rng.
func NewPortFile(path string, rng Range) *PortFile {
	return &PortFile{path: path, rng: rng}
}

// Path returns the backing file path.
func (f *PortFile) Path() string {
	return f.path
}

// Write persists the chosen port, creating the parent directory if needed.
func (f *PortFile) Write(port int) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create port file directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(fmt.Sprintf("%d\n", port)), 0600); err != nil {
		return fmt.Errorf("failed to write port file: %w", err)
	}
	return nil
}

// Read returns the persisted port and true, or 0 and false when no valid
// record exists. A missing file, unparsable content, or an out-of-range
// value are all treated as "no persisted port".
func (f *PortFile) Read() (int, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, false
	}

	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}

	if !f.rng.Contains(port) {
		return 0, false
	}

	return port, true
}
