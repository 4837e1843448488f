package job

import "errors"

// Sentinel errors for configuration, due-checking, compilation, and
// execution. Wrapped with fmt.Errorf("%w: ...") where context helps.
var (
	// ErrInvalidInterval is returned for an unrecognized interval unit.
	ErrInvalidInterval = errors.New("job: invalid interval unit")

	// ErrNoSchedule is returned when a due-check runs against a job that
	// never had a cron expression or interval attached. Misconfiguration
	// is reported, never treated as "not due".
	ErrNoSchedule = errors.New("job: no schedule configured")

	// ErrUnsupportedCommand is returned when execution is requested for
	// a command kind the executor cannot run.
	ErrUnsupportedCommand = errors.New("job: unsupported command kind")

	// ErrSinkWrite is returned when a configured output sink could not
	// be written. The first failing sink aborts the fan-out.
	ErrSinkWrite = errors.New("job: output sink write failed")

	// ErrMailDispatch is returned when captured output could not be
	// sent to the configured recipients.
	ErrMailDispatch = errors.New("job: mail dispatch failed")
)
