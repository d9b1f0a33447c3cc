// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_DefaultLevelSuppressesDebug(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden message")
	logger.Info("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("debug output should be suppressed at default level, got: %q", out)
	}
	if !strings.Contains(out, "visible message") {
		t.Errorf("info output missing, got: %q", out)
	}
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.Debug("trace detail", "step", "pull")

	out := buf.String()
	if !strings.Contains(out, "trace detail") {
		t.Errorf("debug output missing in verbose mode, got: %q", out)
	}
	if !strings.Contains(out, "pull") {
		t.Errorf("structured attribute missing, got: %q", out)
	}
}
