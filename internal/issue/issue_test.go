// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	// Verify all IDs are unique and sequential
	ids := []Id{
		NotRootId,
		NoPackageManagerId,
		EngineInstallFailedId,
		EngineNotFoundId,
		ServiceStartFailedId,
		ImagePullFailedId,
		ContainerStartFailedId,
		ContainerNotRunningId,
		SelfUpdateFailedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	// Verify IDs start at 1 (iota + 1)
	if NotRootId != 1 {
		t.Errorf("NotRootId = %d, want 1", NotRootId)
	}
}

func TestGet_AllIdsRegistered(t *testing.T) {
	ids := []Id{
		NotRootId,
		NoPackageManagerId,
		EngineInstallFailedId,
		EngineNotFoundId,
		ServiceStartFailedId,
		ImagePullFailedId,
		ContainerStartFailedId,
		ContainerNotRunningId,
		SelfUpdateFailedId,
	}

	for _, id := range ids {
		if Get(id) == nil {
			t.Errorf("Get(%d) returned nil; every declared ID needs a catalog entry", id)
		}
	}
}

func TestIssue_Id(t *testing.T) {
	issue := Get(NotRootId)
	if issue == nil {
		t.Fatal("Get(NotRootId) returned nil")
	}

	if issue.Id() != NotRootId {
		t.Errorf("issue.Id() = %d, want %d", issue.Id(), NotRootId)
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	issue := Get(NoPackageManagerId)
	if issue == nil {
		t.Fatal("Get(NoPackageManagerId) returned nil")
	}

	msg := issue.MarkdownMsg()
	if msg == "" {
		t.Error("MarkdownMsg() returned empty string")
	}

	// Verify it contains expected content
	if !strings.Contains(string(msg), "No supported package manager") {
		t.Error("MarkdownMsg() should contain 'No supported package manager'")
	}
}

func TestIssue_Render(t *testing.T) {
	// Swap the renderer so the test does not depend on glamour terminal detection
	origRender := render
	render = func(in, _ string) (string, error) { return in, nil }
	defer func() { render = origRender }()

	issue := Get(ImagePullFailedId)
	if issue == nil {
		t.Fatal("Get(ImagePullFailedId) returned nil")
	}

	out, err := issue.Render("dark")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "Image pull failed") {
		t.Errorf("Render() output missing headline, got: %q", out)
	}
}

func TestValues_CoversCatalog(t *testing.T) {
	values := Values()
	if len(values) != len(issues) {
		t.Errorf("Values() returned %d issues, want %d", len(values), len(issues))
	}

	for _, iss := range values {
		if iss.MarkdownMsg() == "" {
			t.Errorf("issue %d has empty markdown message", iss.Id())
		}
	}
}

func TestGet_UnknownId(t *testing.T) {
	if got := Get(Id(9999)); got != nil {
		t.Errorf("Get(9999) = %v, want nil", got)
	}
}
