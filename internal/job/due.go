package job

import (
	"fmt"
	"time"
)

// Oracle evaluates cron expressions against a reference time. It is
// the schedule collaborator: parsing and date arithmetic live behind
// this boundary, not in the job core.
type Oracle interface {
	// IsDue reports whether expr fires at now.
	IsDue(expr string, now time.Time) (bool, error)

	// PreviousRunTime returns the latest scheduled occurrence of expr
	// at or before now.
	PreviousRunTime(expr string, now time.Time) (time.Time, error)
}

// TimestampReader reads the integer timestamp recorded in a
// last-execution file.
type TimestampReader interface {
	ReadTimestamp(path string) (int64, error)
}

// DueChecker decides whether a job should fire. It is stateless and
// side-effect free: safe to call at arbitrary polling frequency.
type DueChecker struct {
	Oracle     Oracle
	Timestamps TimestampReader
}

// IsDue reports whether j should run at now. Two independent gates
// must both pass:
//
//  1. Schedule gate. With a last-execution file configured, the gate
//     passes iff the schedule's previous occurrence is strictly newer
//     than the recorded timestamp (catch-up semantics: a host that was
//     down is due again once a schedule boundary has passed since the
//     last recorded run). An unreadable or missing file leaves the
//     gate open. Without a file, the oracle's native due-check decides.
//  2. Truth-test gate, captured when When was invoked.
//
// A job with no schedule configured returns ErrNoSchedule.
func (c DueChecker) IsDue(j *Job, now time.Time) (bool, error) {
	if j.schedule == "" {
		return false, fmt.Errorf("%w: job %q", ErrNoSchedule, j.name)
	}

	scheduled, err := c.scheduleGate(j, now)
	if err != nil {
		return false, err
	}

	return scheduled && j.truthTest, nil
}

func (c DueChecker) scheduleGate(j *Job, now time.Time) (bool, error) {
	if j.lastRunFile == "" {
		return c.Oracle.IsDue(j.schedule, now)
	}

	last, err := c.Timestamps.ReadTimestamp(j.lastRunFile)
	if err != nil {
		// Fails open: no readable record means the job has never run
		// (or the record is gone), so a configured schedule is due.
		return true, nil
	}

	prev, err := c.Oracle.PreviousRunTime(j.schedule, now)
	if err != nil {
		return false, err
	}

	return prev.Unix() > last, nil
}
