// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"dockhand/internal/testutil"
)

// TestHelperProcess is re-executed by commands created through
// testutil.CommandRecorder. It is not a real test.
func TestHelperProcess(t *testing.T) {
	testutil.RunHelperProcess()
}

// writeOSRelease writes an os-release file into a temp dir and returns its path.
func writeOSRelease(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "os-release")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write os-release: %v", err)
	}
	return path
}

func TestNewInstaller(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{KindDNF, KindPacman, KindAPT} {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			installer, err := NewInstaller(kind)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := installer.Kind(); got != kind {
				t.Errorf("expected kind %q, got %q", kind, got)
			}
		})
	}
}

func TestNewInstaller_UnknownKind(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{KindNone, Kind("zypper")} {
		if _, err := NewInstaller(kind); !errors.Is(err, ErrNoManager) {
			t.Errorf("NewInstaller(%q): expected ErrNoManager, got %v", kind, err)
		}
	}
}

func TestRunEnv_LayersEnvWithoutClobbering(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewCommandRecorder()
	inner := recorder.ContextCommandFunc(t)

	var captured *exec.Cmd
	b := newBase(WithExecCommand(func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = inner(ctx, name, args...)
		return captured
	}))

	err := b.runEnv(context.Background(), []string{"DEBIAN_FRONTEND=noninteractive"}, "apt-get", "update")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured == nil {
		t.Fatal("command was never created")
	}
	if !slices.Contains(captured.Env, "DEBIAN_FRONTEND=noninteractive") {
		t.Errorf("expected DEBIAN_FRONTEND=noninteractive in env, got: %v", captured.Env)
	}
	if !slices.Contains(captured.Env, "GO_WANT_HELPER_PROCESS=1") {
		t.Errorf("expected creation-time env to survive layering, got: %v", captured.Env)
	}
}

func TestRun_FailureIncludesLastOutputLine(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewCommandRecorder()
	recorder.RespondTo("dnf", testutil.CommandResponse{
		Stderr:   "Transaction check running\nError: Unable to find a match: docker-ce\n",
		ExitCode: 1,
	})
	b := newBase(WithExecCommand(recorder.ContextCommandFunc(t)))

	err := b.run(context.Background(), "dnf", "-y", "install", "docker-ce")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "Unable to find a match") {
		t.Errorf("expected last output line in error, got: %v", err)
	}
}

func TestFetchToFile(t *testing.T) {
	t.Parallel()

	const body = "[docker-ce-stable]\nname=Docker CE Stable\nenabled=1\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "etc", "yum.repos.d", "docker-ce.repo")
	b := newBase(WithHTTPClient(server.Client()))

	if err := b.fetchToFile(context.Background(), server.URL, dest, 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("destination file not written: %v", err)
	}
	if string(data) != body {
		t.Errorf("expected file content %q, got %q", body, data)
	}
}

func TestFetchToFile_HTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	b := newBase(WithHTTPClient(server.Client()))
	dest := filepath.Join(t.TempDir(), "out")

	err := b.fetchToFile(context.Background(), server.URL, dest, 0o644)
	if err == nil {
		t.Fatal("expected an error for status 404")
	}
	if !strings.Contains(err.Error(), "unexpected status") {
		t.Errorf("expected status error, got: %v", err)
	}
	if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("expected no file on fetch failure, stat returned: %v", statErr)
	}
}

func TestFetchToFile_CancelledContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "never delivered")
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newBase(WithHTTPClient(server.Client()))
	err := b.fetchToFile(ctx, server.URL, filepath.Join(t.TempDir(), "out"), 0o644)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got: %v", err)
	}
}
