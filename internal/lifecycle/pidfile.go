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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrPIDFileExists is returned when trying to create a PID file that already exists.
	ErrPIDFileExists = errors.New("PID file already exists")

	// ErrInvalidPID is returned when the PID file contains invalid data.
	ErrInvalidPID = errors.New("invalid PID in file")

	// ErrUnsafeDirectory is returned when the PID file parent is world-writable.
	ErrUnsafeDirectory = errors.New("PID file directory is world-writable")
)

// PIDFile is the persisted registry of the supervised process's PID:
// a well-known file whose sole content is one decimal integer.
// Creation uses O_EXCL so two concurrent start invocations cannot both
// claim ownership; callers remove a confirmed-stale file before retrying.
type PIDFile struct {
	path string
}

// NewPIDFile creates a PID registry backed by the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the backing file path.
func (f *PIDFile) Path() string {
	return f.path
}

// Write persists the given PID, creating the parent directory if needed.
// Returns ErrPIDFileExists if the file is already present.
func (f *PIDFile) Write(pid int) error {
	parentDir := filepath.Dir(f.path)
	if err := f.verifyDirectorySafety(parentDir); err != nil {
		return fmt.Errorf("unsafe PID file location: %w", err)
	}

	if err := os.MkdirAll(parentDir, 0700); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	// O_EXCL prevents symlink attacks and closes most of the window where
	// two concurrent starts both observe "no live pid" and spawn.
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return ErrPIDFileExists
		}
		return fmt.Errorf("failed to create PID file: %w", err)
	}

	if _, err := fmt.Fprintf(file, "%d\n", pid); err != nil {
		file.Close()
		os.Remove(f.path)
		return fmt.Errorf("failed to write PID: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(f.path)
		return fmt.Errorf("failed to sync PID file: %w", err)
	}

	return file.Close()
}

// Read parses the persisted PID. Returns an os.IsNotExist error if the file
// is absent, or ErrInvalidPID if its content is not a positive integer.
// Callers treat both cases as "no record".
func (f *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPID, pidStr)
	}

	if pid <= 0 {
		return 0, fmt.Errorf("%w: PID must be positive, got %d", ErrInvalidPID, pid)
	}

	return pid, nil
}

// Remove deletes the PID file. Idempotent: removing an absent file is a no-op.
func (f *PIDFile) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Exists returns true if the PID file exists.
func (f *PIDFile) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// verifyDirectorySafety checks that the directory is not world-writable.
// This prevents attacks where an attacker creates a symlink in a
// world-writable directory pointing to a file they want us to overwrite.
func (f *PIDFile) verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		// Directory doesn't exist yet - that's fine, we'll create it
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	mode := info.Mode()
	if mode&0002 != 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}

	return nil
}
