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

package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tombee/warden/internal/commands/shared"
)

func TestVersionCommand(t *testing.T) {
	shared.SetVersion("1.2.3", "abc1234", "2026-02-01")

	cmd := NewVersionCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("runVersion() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "warden version 1.2.3") {
		t.Errorf("output missing version line: %q", got)
	}
	if !strings.Contains(got, "abc1234") {
		t.Errorf("output missing commit: %q", got)
	}
}
