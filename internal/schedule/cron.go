// Package schedule evaluates 5-field cron expressions against a
// reference time. It is the schedule oracle consumed by the job core:
// expression parsing and date arithmetic stay behind this boundary.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrNoPrevious is returned when no scheduled occurrence exists within
// the lookback horizon.
var ErrNoPrevious = errors.New("schedule: no previous occurrence within lookback")

// maxLookback bounds the backward search for a previous occurrence.
// Five years covers the sparsest valid expression (Feb 29).
const maxLookback = 5 * 366 * 24 * time.Hour

// Cron evaluates standard 5-field expressions (minute through
// day-of-week). It is stateless and safe for concurrent use.
type Cron struct {
	parser cron.Parser
}

// NewCron creates a Cron oracle.
func NewCron() *Cron {
	return &Cron{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// Parse validates expr, returning the parse error if it is malformed.
func (c *Cron) Parse(expr string) error {
	_, err := c.parser.Parse(expr)
	if err != nil {
		return fmt.Errorf("schedule: parse %q: %w", expr, err)
	}
	return nil
}

// IsDue reports whether expr fires at now, at minute granularity.
func (c *Cron) IsDue(expr string, now time.Time) (bool, error) {
	sched, err := c.parser.Parse(expr)
	if err != nil {
		return false, fmt.Errorf("schedule: parse %q: %w", expr, err)
	}

	minute := now.Truncate(time.Minute)
	return sched.Next(minute.Add(-time.Second)).Equal(minute), nil
}

// PreviousRunTime returns the latest occurrence of expr at or before
// now. The cron library only exposes Next, so the previous occurrence
// is found by widening a lookback window exponentially until it
// contains an occurrence, then walking Next forward to the last one
// not after now.
func (c *Cron) PreviousRunTime(expr string, now time.Time) (time.Time, error) {
	sched, err := c.parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: parse %q: %w", expr, err)
	}

	for window := time.Minute; window <= maxLookback; window *= 2 {
		first := sched.Next(now.Add(-window))
		if first.IsZero() || first.After(now) {
			continue
		}

		prev := first
		for {
			next := sched.Next(prev)
			if next.IsZero() || next.After(now) {
				return prev, nil
			}
			prev = next
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrNoPrevious, expr)
}
