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

package shared

import (
	"errors"
	"fmt"
	"os"

	pkgerrors "github.com/tombee/warden/pkg/errors"
)

// Exit codes for warden commands
const (
	ExitSuccess        = 0
	ExitActionFailed   = 1
	ExitInvalidAction  = 2
	ExitConfigError    = 3
	ExitSpawnFailed    = 4
	ExitRangeExhausted = 5
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewInvalidActionError creates an error for unrecognized actions
func NewInvalidActionError(msg string) *ExitError {
	return &ExitError{
		Code:    ExitInvalidAction,
		Message: msg,
	}
}

// NewConfigExitError creates an error for configuration failures
func NewConfigExitError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitConfigError,
		Message: msg,
		Cause:   cause,
	}
}

// WrapActionError classifies a lifecycle action failure by its cause
// so each fatal error family gets a distinct exit code.
func WrapActionError(msg string, cause error) *ExitError {
	code := ExitActionFailed

	var spawnErr *pkgerrors.SpawnError
	var rangeErr *pkgerrors.RangeExhaustedError
	var cfgErr *pkgerrors.ConfigError
	switch {
	case errors.As(cause, &spawnErr):
		code = ExitSpawnFailed
	case errors.As(cause, &rangeErr):
		code = ExitRangeExhausted
	case errors.As(cause, &cfgErr):
		code = ExitConfigError
	}

	return &ExitError{
		Code:    code,
		Message: msg,
		Cause:   cause,
	}
}

// HandleExitError checks if an error is an ExitError and exits with the appropriate code
func HandleExitError(err error) {
	if err == nil {
		return
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		msg := exitErr.Error()
		if len(msg) > 0 {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}

		// Check if the error (or any in the chain) implements UserVisibleError
		printUserVisibleSuggestion(err)

		os.Exit(exitErr.Code)
	}

	// Default to action failed
	fmt.Fprintln(os.Stderr, "Error:", err.Error())

	printUserVisibleSuggestion(err)

	os.Exit(ExitActionFailed)
}

// printUserVisibleSuggestion checks if an error implements UserVisibleError
// and prints the suggestion if available.
func printUserVisibleSuggestion(err error) {
	// Walk the error chain to find a UserVisibleError
	for err != nil {
		if userErr, ok := err.(pkgerrors.UserVisibleError); ok {
			if userErr.IsUserVisible() {
				suggestion := userErr.Suggestion()
				if suggestion != "" {
					fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", suggestion)
				}
			}
			return
		}

		// Continue unwrapping
		err = errors.Unwrap(err)
	}
}
