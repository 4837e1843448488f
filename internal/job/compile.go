package job

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// Compile materializes the job's current state into one executable
// command string and stores it as the job's compiled value. It is
// called unconditionally before every execution; a stale compiled
// string is a correctness bug, not a performance concern.
func (j *Job) Compile() string {
	j.compiled = compileCommand(j)
	return j.compiled
}

// compileCommand is the pure transform behind Compile. Calling it
// twice with unchanged job state yields a byte-identical string.
//
// Layout:
//
//	<base> <flag> "<value>" ... | tee [-a] <sink>... > /dev/null 2>&1 [&]
//
// The final redirection suppresses shell echo even when sinks are
// configured; sinks only ever see output through the tee stage.
func compileCommand(j *Job) string {
	var b strings.Builder
	b.WriteString(j.command)

	for _, a := range j.args {
		b.WriteByte(' ')
		b.WriteString(a.Flag)
		b.WriteByte(' ')
		if j.escapeArgs {
			b.WriteString(shellquote.Join(a.Value))
		} else {
			// Legacy quoting: bare surrounding double quotes, no
			// escaping of the value itself.
			b.WriteByte('"')
			b.WriteString(a.Value)
			b.WriteByte('"')
		}
	}

	if len(j.sinks) > 0 {
		b.WriteString(" | tee")
		if j.outputMode == Append {
			b.WriteString(" -a")
		}
		for _, sink := range j.sinks {
			b.WriteByte(' ')
			b.WriteString(sink)
		}
	}

	b.WriteString(" > /dev/null 2>&1")

	if j.background {
		b.WriteString(" &")
	}

	return strings.TrimSpace(b.String())
}
