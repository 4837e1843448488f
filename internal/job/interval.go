package job

import (
	"fmt"
	"strconv"
	"strings"
)

// IntervalSpec translates a coarse interval request into a cron
// expression and binds it to the owning job. It is a two-step builder:
// Every() hands one out, each finalizer writes the expression into the
// job's schedule and returns the caller to job-configuration context.
type IntervalSpec struct {
	job *Job
}

// Minute schedules the job every minute. This is also the default when
// Unit is called with an empty keyword.
func (s *IntervalSpec) Minute() *Job { return s.attach("* * * * *") }

// Minutes schedules the job every n minutes.
func (s *IntervalSpec) Minutes(n int) (*Job, error) {
	if n < 1 || n > 59 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidInterval, n)
	}
	return s.attach(fmt.Sprintf("*/%d * * * *", n)), nil
}

// Hourly schedules the job at the top of every hour.
func (s *IntervalSpec) Hourly() *Job { return s.attach("0 * * * *") }

// Daily schedules the job at midnight.
func (s *IntervalSpec) Daily() *Job { return s.attach("0 0 * * *") }

// Weekly schedules the job at midnight on Sunday.
func (s *IntervalSpec) Weekly() *Job { return s.attach("0 0 * * 0") }

// Monthly schedules the job at midnight on the first of the month.
func (s *IntervalSpec) Monthly() *Job { return s.attach("0 0 1 * *") }

// Unit finalizes the builder from a keyword, for config-driven wiring.
// Recognized: "" or "*" or "minute" (every minute), "N minutes",
// "hourly"/"hour", "daily"/"day", "weekly"/"week", "monthly"/"month".
// Anything else returns ErrInvalidInterval rather than silently
// producing a wildcard schedule.
func (s *IntervalSpec) Unit(unit string) (*Job, error) {
	switch strings.TrimSpace(unit) {
	case "", "*", "minute":
		return s.Minute(), nil
	case "hourly", "hour":
		return s.Hourly(), nil
	case "daily", "day":
		return s.Daily(), nil
	case "weekly", "week":
		return s.Weekly(), nil
	case "monthly", "month":
		return s.Monthly(), nil
	}

	// "N minutes" form.
	fields := strings.Fields(unit)
	if len(fields) == 2 && (fields[1] == "minutes" || fields[1] == "minute") {
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidInterval, unit)
		}
		return s.Minutes(n)
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidInterval, unit)
}

func (s *IntervalSpec) attach(expr string) *Job {
	s.job.schedule = expr
	return s.job
}
