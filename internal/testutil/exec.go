// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"testing"
)

type (
	// CommandResponse is the simulated result of one command invocation.
	CommandResponse struct {
		// Stdout is written to the command's standard output.
		Stdout string
		// Stderr is written to the command's standard error.
		Stderr string
		// ExitCode is the command's exit code (0 = success).
		ExitCode int
	}

	// CommandInvocation records a single external command a component
	// attempted to run.
	CommandInvocation struct {
		// Name is the command name (e.g., "docker", "systemctl").
		Name string
		// Args are the arguments passed to the command.
		Args []string
	}

	// CommandRecorder captures external command invocations and simulates
	// their results using the helper-process pattern: instead of the real
	// binary, each returned exec.Cmd re-runs the test binary with
	// -test.run=TestHelperProcess, which prints the configured output and
	// exits with the configured code.
	//
	// Responses are matched to invocations by command-line prefix via
	// RespondTo. A rule registered with several responses hands them out
	// one per matching invocation and then repeats the last one, which lets
	// tests model state transitions ("inactive" on the first probe,
	// "active" after the start). Unmatched invocations receive the default
	// response (success, no output).
	CommandRecorder struct {
		mu          sync.Mutex
		invocations []CommandInvocation
		rules       []*responseRule
		defaultResp CommandResponse
	}

	responseRule struct {
		prefix    string
		responses []CommandResponse
		next      int
	}
)

// NewCommandRecorder creates a recorder whose default response is success
// with no output.
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{}
}

// RespondTo registers the responses for invocations whose command line
// (name and arguments joined by spaces) starts with prefix. Rules are
// matched in registration order; the first match wins.
func (r *CommandRecorder) RespondTo(prefix string, responses ...CommandResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, &responseRule{prefix: prefix, responses: responses})
}

// SetDefault changes the response for invocations no rule matches.
func (r *CommandRecorder) SetDefault(resp CommandResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultResp = resp
}

// CommandFunc returns a replacement for exec.Command that records the
// invocation and runs the helper process instead of the real binary.
func (r *CommandRecorder) CommandFunc(t *testing.T) func(name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(name string, args ...string) *exec.Cmd {
		resp := r.record(name, args)

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.Command(os.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", resp.ExitCode),
			"GO_HELPER_STDOUT=" + resp.Stdout,
			"GO_HELPER_STDERR=" + resp.Stderr,
		}
		return cmd
	}
}

// ContextCommandFunc returns a replacement for exec.CommandContext. The
// context is ignored; the helper process finishes immediately.
func (r *CommandRecorder) ContextCommandFunc(t *testing.T) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	cmdFunc := r.CommandFunc(t)
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		return cmdFunc(name, args...)
	}
}

// record stores the invocation and picks its response.
func (r *CommandRecorder) record(name string, args []string) CommandResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.invocations = append(r.invocations, CommandInvocation{Name: name, Args: args})

	line := strings.Join(append([]string{name}, args...), " ")
	for _, rule := range r.rules {
		if !strings.HasPrefix(line, rule.prefix) {
			continue
		}
		if len(rule.responses) == 0 {
			return r.defaultResp
		}
		resp := rule.responses[rule.next]
		if rule.next < len(rule.responses)-1 {
			rule.next++
		}
		return resp
	}
	return r.defaultResp
}

// Invocations returns a copy of all recorded invocations in order.
func (r *CommandRecorder) Invocations() []CommandInvocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.invocations)
}

// CommandLines returns each recorded invocation as a single string
// ("name arg1 arg2 ...") in invocation order.
func (r *CommandRecorder) CommandLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, len(r.invocations))
	for i, inv := range r.invocations {
		lines[i] = strings.Join(append([]string{inv.Name}, inv.Args...), " ")
	}
	return lines
}

// LastInvocation returns the most recent invocation, or nil if none.
func (r *CommandRecorder) LastInvocation() *CommandInvocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.invocations) == 0 {
		return nil
	}
	inv := r.invocations[len(r.invocations)-1]
	return &inv
}

// LastArgs returns the arguments from the most recent invocation.
func (r *CommandRecorder) LastArgs() []string {
	if inv := r.LastInvocation(); inv != nil {
		return inv.Args
	}
	return nil
}

// Reset clears all recorded invocations. Registered responses survive.
func (r *CommandRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations = r.invocations[:0]
}

// AssertInvocationCount verifies the number of command invocations.
func (r *CommandRecorder) AssertInvocationCount(t *testing.T, expected int) {
	t.Helper()
	if got := len(r.Invocations()); got != expected {
		t.Errorf("expected %d invocations, got %d: %v", expected, got, r.CommandLines())
	}
}

// AssertNoInvocations verifies that no command was run at all.
func (r *CommandRecorder) AssertNoInvocations(t *testing.T) {
	t.Helper()
	if lines := r.CommandLines(); len(lines) > 0 {
		t.Errorf("expected no invocations, got %d: %v", len(lines), lines)
	}
}

// AssertCommandName verifies the last command name matches.
func (r *CommandRecorder) AssertCommandName(t *testing.T, expected string) {
	t.Helper()
	if inv := r.LastInvocation(); inv == nil {
		t.Errorf("expected command %q but no commands were invoked", expected)
	} else if inv.Name != expected {
		t.Errorf("expected command %q, got %q", expected, inv.Name)
	}
}

// AssertFirstArg verifies the first argument (subcommand) of the last
// invocation matches.
func (r *CommandRecorder) AssertFirstArg(t *testing.T, expected string) {
	t.Helper()
	args := r.LastArgs()
	if len(args) == 0 {
		t.Errorf("expected first arg %q but args are empty", expected)
		return
	}
	if args[0] != expected {
		t.Errorf("expected first arg %q, got %q", expected, args[0])
	}
}

// AssertArgsContain verifies that the last invocation args contain the
// expected string.
func (r *CommandRecorder) AssertArgsContain(t *testing.T, expected string) {
	t.Helper()
	args := r.LastArgs()
	if !strings.Contains(strings.Join(args, " "), expected) {
		t.Errorf("expected args to contain %q, got: %v", expected, args)
	}
}

// HasArg checks whether the last invocation contains a specific argument.
func (r *CommandRecorder) HasArg(arg string) bool {
	return slices.Contains(r.LastArgs(), arg)
}

// HasArgPair checks whether the last invocation contains a flag-value pair
// (e.g., "--name", "dockhand-agent").
func (r *CommandRecorder) HasArgPair(flag, value string) bool {
	args := r.LastArgs()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

// RunHelperProcess implements the body of the TestHelperProcess test that
// every package using CommandRecorder must declare:
//
//	func TestHelperProcess(t *testing.T) { testutil.RunHelperProcess() }
//
// When invoked by a recorder-created command it prints the configured
// output and exits the process; invoked as a regular test it is a no-op.
func RunHelperProcess() {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}
	os.Exit(exitCode)
}
