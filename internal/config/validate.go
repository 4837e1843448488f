package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/jobkit/internal/job"
	"github.com/flemzord/jobkit/internal/schedule"
)

// Validate checks the configuration for structural problems: duplicate
// or missing job names, unparseable schedules, unknown interval
// keywords, bad output modes, and email use without a mail transport.
// All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	oracle := schedule.NewCron()
	seen := make(map[string]struct{})
	needsMail := false

	for i, jc := range cfg.Jobs {
		where := fmt.Sprintf("jobs[%d]", i)
		if jc.Name != "" {
			where = fmt.Sprintf("job %q", jc.Name)
		}

		if jc.Name == "" {
			errs = append(errs, fmt.Errorf("%s: missing name", where))
		} else if _, dup := seen[jc.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate name", where))
		}
		seen[jc.Name] = struct{}{}

		if jc.Command == "" {
			errs = append(errs, fmt.Errorf("%s: missing command", where))
		}

		switch {
		case jc.Schedule != "" && jc.Every != "":
			errs = append(errs, fmt.Errorf("%s: schedule and every are mutually exclusive", where))
		case jc.Schedule != "":
			if err := oracle.Parse(jc.Schedule); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
		case jc.Every != "":
			probe := job.NewShell(jc.Name, jc.Command)
			if _, err := probe.Every().Unit(jc.Every); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: needs a schedule or an interval", where))
		}

		if jc.Output != nil {
			if _, err := job.ParseMode(jc.Output.Mode); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
			if len(jc.Output.Files) == 0 {
				errs = append(errs, fmt.Errorf("%s: output configured without files", where))
			}
		}

		if err := checkArgs(jc.Args); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}

		if len(jc.Email) > 0 {
			needsMail = true
		}
	}

	if needsMail && cfg.Mail == nil {
		errs = append(errs, errors.New("config: jobs use email but no mail transport is configured"))
	}

	return errors.Join(errs...)
}

// checkArgs verifies that the args node, when present, is a flat
// mapping of scalars.
func checkArgs(node yaml.Node) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errors.New("config: args must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Kind != yaml.ScalarNode || node.Content[i+1].Kind != yaml.ScalarNode {
			return fmt.Errorf("config: args entry %q must be scalar", node.Content[i].Value)
		}
	}
	return nil
}
