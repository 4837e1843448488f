package job

import "fmt"

// Mode selects how output sinks receive content. One mode applies to
// all sinks of a job, never per sink.
type Mode int

const (
	// Overwrite truncates each sink before writing.
	Overwrite Mode = iota

	// Append adds to the end of each sink.
	Append
)

// String returns the config keyword for the mode.
func (m Mode) String() string {
	switch m {
	case Overwrite:
		return "overwrite"
	case Append:
		return "append"
	default:
		return "unknown"
	}
}

// ParseMode converts a config keyword into a Mode. The empty string
// defaults to Overwrite.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "overwrite":
		return Overwrite, nil
	case "append":
		return Append, nil
	default:
		return Overwrite, fmt.Errorf("job: unknown output mode %q", s)
	}
}
