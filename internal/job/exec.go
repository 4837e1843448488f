package job

import (
	"context"
	"fmt"
	"log/slog"
)

// SinkWriter writes captured output to one file sink.
type SinkWriter interface {
	Write(content, path string, mode Mode) error
}

// Attachment is a named payload for outgoing mail.
type Attachment struct {
	Name    string
	Content []byte
}

// Mailer ships captured output to recipients. The transport lives
// behind this boundary; the executor only decides when to send.
type Mailer interface {
	Send(ctx context.Context, from Address, to []string, subject, text, html string, attachments []Attachment) error
}

// Runner executes a compiled shell command string.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ExecutorConfig holds executor collaborators and defaults.
type ExecutorConfig struct {
	Sinks  SinkWriter
	Mailer Mailer
	Shell  Runner   // nil = shell jobs are unsupported
	From   Address  // default sender when a job has none
	Logger *slog.Logger
}

// defaultFrom is the fallback sender identity applied when neither the
// job nor the executor configuration names one.
var defaultFrom = Address{Addr: "jobs@jobkit.local", Name: "jobkit"}

func (c ExecutorConfig) withDefaults() ExecutorConfig {
	if c.From.IsZero() {
		c.From = defaultFrom
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Executor runs compiled jobs and fans their output out to sinks and
// mail recipients.
type Executor struct {
	cfg ExecutorConfig
}

// NewExecutor creates an Executor with the given collaborators.
func NewExecutor(cfg ExecutorConfig) *Executor {
	return &Executor{cfg: cfg.withDefaults()}
}

// Exec runs j and returns its output payload. The command is
// recompiled unconditionally first, so argument, output, and
// background changes made after the due-check are honored.
//
// In-process jobs produce a payload that is written to each configured
// sink in order, then mailed if recipients are set. Shell jobs hand
// the compiled string to the runner; the compiled artifact carries its
// own tee, redirection, and background suffixes, so the executor does
// not re-route shell output to sinks.
//
// Mail is dispatched only when the job has recipients and the run
// produced a non-empty payload: an empty output sends nothing.
func (e *Executor) Exec(ctx context.Context, j *Job) (string, error) {
	command := j.Compile()

	var output string
	switch j.kind {
	case InProcess:
		if j.callable == nil {
			return "", fmt.Errorf("%w: job %q has no callable", ErrUnsupportedCommand, j.name)
		}
		out, err := j.callable(ctx, j.Args())
		if err != nil {
			return "", fmt.Errorf("job: %q: %w", j.name, err)
		}
		output = out

		if err := e.writeSinks(j, output); err != nil {
			return output, err
		}

	case Shell:
		if e.cfg.Shell == nil {
			return "", fmt.Errorf("%w: no shell runner configured for job %q", ErrUnsupportedCommand, j.name)
		}
		out, err := e.cfg.Shell.Run(ctx, command)
		if err != nil {
			return "", fmt.Errorf("job: %q: %w", j.name, err)
		}
		output = out

	default:
		return "", fmt.Errorf("%w: %v", ErrUnsupportedCommand, j.kind)
	}

	if len(j.recipients) > 0 && output != "" {
		if err := e.mail(ctx, j, output); err != nil {
			return output, err
		}
	}

	return output, nil
}

// writeSinks fans the payload out to the job's sinks. The first
// failure surfaces immediately; remaining sinks are not attempted.
func (e *Executor) writeSinks(j *Job, output string) error {
	if len(j.sinks) == 0 {
		return nil
	}
	if e.cfg.Sinks == nil {
		return fmt.Errorf("%w: no sink writer configured", ErrSinkWrite)
	}

	for _, sink := range j.sinks {
		if err := e.cfg.Sinks.Write(output, sink, j.outputMode); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSinkWrite, sink, err)
		}
	}
	return nil
}

func (e *Executor) mail(ctx context.Context, j *Job, output string) error {
	if e.cfg.Mailer == nil {
		return fmt.Errorf("%w: no mailer configured", ErrMailDispatch)
	}

	from := j.from
	if from.IsZero() {
		from = e.cfg.From
	}

	subject := fmt.Sprintf("jobkit: output of %q", j.name)
	text := fmt.Sprintf("Output of job %q is attached.", j.name)
	attachments := []Attachment{{Name: "output.txt", Content: []byte(output)}}

	if err := e.cfg.Mailer.Send(ctx, from, j.recipients, subject, text, "", attachments); err != nil {
		return fmt.Errorf("%w: %w", ErrMailDispatch, err)
	}

	e.cfg.Logger.Debug("job: output mailed", "job", j.name, "recipients", len(j.recipients))
	return nil
}
