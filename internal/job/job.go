// Package job models a single schedulable unit of work: a shell command
// or an in-process callable, plus the rules that decide whether it is
// due to run and how it compiles into one executable command string.
package job

import (
	"context"
	"time"
)

// Kind identifies how a job executes. It is fixed at construction and
// never inferred from the command value at execution time.
type Kind int

const (
	// Shell jobs compile to a command string handed to a shell runner.
	Shell Kind = iota

	// InProcess jobs invoke a Go callable instead of spawning a process.
	InProcess
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case Shell:
		return "shell"
	case InProcess:
		return "in-process"
	default:
		return "unknown"
	}
}

// Callable is an in-process job body. It receives the job's ordered
// arguments as its sole input and returns the output payload.
type Callable func(ctx context.Context, args []Arg) (string, error)

// Arg is one flag/value pair. Insertion order is preserved and affects
// the compiled command's layout.
type Arg struct {
	Flag  string
	Value string
}

// Address is an email sender identity (address plus display name).
type Address struct {
	Addr string
	Name string
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a.Addr == "" }

// Job is a schedulable unit combining a command, ordered arguments, a
// schedule, and output routing. Configuration methods mutate it in a
// builder style and return the job itself; a single caller is assumed
// to own a job exclusively (no internal locking).
type Job struct {
	name     string
	kind     Kind
	command  string
	callable Callable

	args     []Arg
	compiled string

	createdAt time.Time

	sinks      []string
	outputMode Mode

	recipients []string
	from       Address

	schedule    string
	lastRunFile string

	background bool
	truthTest  bool
	escapeArgs bool
}

// NewShell creates a shell-command job from a base command template and
// an optional initial argument mapping.
func NewShell(name, command string, args ...Arg) *Job {
	j := newJob(name, args)
	j.kind = Shell
	j.command = command
	return j
}

// NewCallable creates an in-process job around fn.
func NewCallable(name string, fn Callable, args ...Arg) *Job {
	j := newJob(name, args)
	j.kind = InProcess
	j.callable = fn
	return j
}

func newJob(name string, args []Arg) *Job {
	j := &Job{
		name:       name,
		createdAt:  time.Now(),
		background: true,
		truthTest:  true,
	}
	for _, a := range args {
		j.Arg(a.Flag, a.Value)
	}
	return j
}

// Name returns the job's identifier, used for logging and registry dedup.
func (j *Job) Name() string { return j.name }

// Kind returns the job's execution kind.
func (j *Job) Kind() Kind { return j.kind }

// Command returns the base command template (empty for in-process jobs).
func (j *Job) Command() string { return j.command }

// Args returns a copy of the ordered argument mapping.
func (j *Job) Args() []Arg {
	out := make([]Arg, len(j.args))
	copy(out, j.args)
	return out
}

// Compiled returns the last materialized command string. It is derived
// state: Compile and Exec recompute it, callers never set it directly.
func (j *Job) Compiled() string { return j.compiled }

// CreatedAt returns the construction timestamp (informational only).
func (j *Job) CreatedAt() time.Time { return j.createdAt }

// Sinks returns a copy of the configured output file paths.
func (j *Job) Sinks() []string {
	out := make([]string, len(j.sinks))
	copy(out, j.sinks)
	return out
}

// OutputMode returns the mode shared by all of the job's sinks.
func (j *Job) OutputMode() Mode { return j.outputMode }

// Recipients returns a copy of the configured email recipients.
func (j *Job) Recipients() []string {
	out := make([]string, len(j.recipients))
	copy(out, j.recipients)
	return out
}

// From returns the job's sender identity. A zero value means the
// executor's default sender applies.
func (j *Job) From() Address { return j.from }

// Schedule returns the attached cron expression ("" = none configured).
func (j *Job) Schedule() string { return j.schedule }

// LastRunFile returns the last-execution tracking file path, if any.
func (j *Job) LastRunFile() string { return j.lastRunFile }

// Background reports whether the compiled command runs detached.
func (j *Job) Background() bool { return j.background }

// TruthTest returns the boolean gate captured by When.
func (j *Job) TruthTest() bool { return j.truthTest }

// Arg inserts or replaces one flag/value pair. A replaced flag keeps
// its original position; new flags append.
func (j *Job) Arg(flag, value string) *Job {
	for i := range j.args {
		if j.args[i].Flag == flag {
			j.args[i].Value = value
			return j
		}
	}
	j.args = append(j.args, Arg{Flag: flag, Value: value})
	return j
}

// At attaches a raw cron expression as the job's schedule.
func (j *Job) At(expr string) *Job {
	j.schedule = expr
	return j
}

// Every returns an interval builder bound to this job. Finalizing the
// builder writes the translated cron expression back into the schedule.
func (j *Job) Every() *IntervalSpec {
	return &IntervalSpec{job: j}
}

// Output configures the job's file sinks and the single mode shared by
// all of them. An empty path list means output is discarded.
func (j *Job) Output(mode Mode, paths ...string) *Job {
	j.outputMode = mode
	j.sinks = append([]string(nil), paths...)
	return j
}

// Email appends recipients for the captured output. Setting any
// recipient disables background execution: output must be captured
// synchronously before it can be mailed.
func (j *Job) Email(addrs ...string) *Job {
	j.recipients = append(j.recipients, addrs...)
	if len(j.recipients) > 0 {
		j.background = false
	}
	return j
}

// Foreground forces synchronous execution regardless of recipients.
func (j *Job) Foreground() *Job {
	j.background = false
	return j
}

// When captures the result of pred as the job's truth-test gate. The
// predicate runs once, at definition time, not on every poll.
func (j *Job) When(pred func() bool) *Job {
	j.truthTest = pred()
	return j
}

// EscapeArgs switches argument compilation from the legacy bare
// double-quoting to shell-escaped values.
func (j *Job) EscapeArgs() *Job {
	j.escapeArgs = true
	return j
}

// Setup applies an injected configuration mapping. Recognized keys:
//
//	lastExecutionFile  string
//	emailFrom          Address, or map[string]string (addr -> display name)
//
// Unknown keys are ignored.
func (j *Job) Setup(opts map[string]any) *Job {
	for key, val := range opts {
		switch key {
		case "lastExecutionFile":
			if path, ok := val.(string); ok {
				j.lastRunFile = path
			}
		case "emailFrom":
			switch from := val.(type) {
			case Address:
				j.from = from
			case map[string]string:
				for addr, name := range from {
					j.from = Address{Addr: addr, Name: name}
					break
				}
			}
		}
	}
	return j
}
