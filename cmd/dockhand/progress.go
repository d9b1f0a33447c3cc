// SPDX-License-Identifier: EPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"dockhand/internal/provision"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// stepProgress surfaces provisioning steps to the user. On a terminal it
// drives a spinner whose text follows the current step; otherwise it prints
// one plain line per step so piped output and logs stay readable.
type stepProgress struct {
	out     io.Writer
	spinner *spinner.Spinner
	started bool
}

// newStepProgress builds the progress reporter for out. The spinner is only
// created when out is a real terminal; buffers and pipes get plain lines.
func newStepProgress(out io.Writer) *stepProgress {
	p := &stepProgress{out: out}

	f, ok := out.(*os.File)
	if !ok || noColor {
		return p
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	}
	return p
}

// observe implements provision.StepObserver. It must return quickly: the
// provisioner calls it inline between steps.
func (p *stepProgress) observe(_ provision.Step, detail string) {
	if p.spinner != nil {
		p.spinner.Suffix = " " + detail
		if !p.started {
			p.spinner.Start()
			p.started = true
		}
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", VerboseStyle.Render("*"), detail)
}

// stop halts the spinner, leaving the cursor on a clean line. Safe to call
// multiple times and on plain-line reporters.
func (p *stepProgress) stop() {
	if p.spinner != nil && p.started {
		p.spinner.Stop()
		p.started = false
	}
}
