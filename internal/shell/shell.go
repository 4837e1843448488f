// Package shell runs compiled job command strings through the system
// shell. Compiled artifacts carry their own tee, redirection, and
// background suffixes, so the runner's job is only to hand the string
// to a shell and report failures.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner executes commands via "sh -c".
type Runner struct {
	// Shell overrides the shell binary. Empty means "/bin/sh".
	Shell string
}

// Run executes command and returns its combined stdout/stderr. A
// compiled job string normally redirects both to the null device, so
// the returned output is empty by design for shell-mode jobs.
func (r Runner) Run(ctx context.Context, command string) (string, error) {
	bin := r.Shell
	if bin == "" {
		bin = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, bin, "-c", command)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("shell: %q: %w", command, err)
	}

	return buf.String(), nil
}
