package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/jobkit/internal/job"
)

// BuildJobs turns the validated configuration into job values, with
// the configured defaults applied. Argument insertion order follows
// the YAML file.
func BuildJobs(cfg *Config) ([]*job.Job, error) {
	jobs := make([]*job.Job, 0, len(cfg.Jobs))

	for _, jc := range cfg.Jobs {
		j, err := buildJob(cfg, jc)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	return jobs, nil
}

func buildJob(cfg *Config, jc JobConfig) (*job.Job, error) {
	j := job.NewShell(jc.Name, jc.Command)

	for _, a := range argPairs(jc.Args) {
		j.Arg(a.Flag, a.Value)
	}

	if jc.Schedule != "" {
		j.At(jc.Schedule)
	} else if _, err := j.Every().Unit(jc.Every); err != nil {
		return nil, fmt.Errorf("config: job %q: %w", jc.Name, err)
	}

	if jc.Output != nil {
		mode, err := job.ParseMode(jc.Output.Mode)
		if err != nil {
			return nil, fmt.Errorf("config: job %q: %w", jc.Name, err)
		}
		j.Output(mode, jc.Output.Files...)
	}

	if len(jc.Email) > 0 {
		j.Email(jc.Email...)
	}
	if jc.Foreground {
		j.Foreground()
	}
	if jc.EscapeArgs {
		j.EscapeArgs()
	}

	setup := make(map[string]any)
	if jc.LastRunFile != "" {
		setup["lastExecutionFile"] = jc.LastRunFile
	}
	from := jc.EmailFrom
	if from == nil {
		from = cfg.Defaults.EmailFrom
	}
	if from != nil {
		setup["emailFrom"] = job.Address{Addr: from.Address, Name: from.Name}
	}
	if len(setup) > 0 {
		j.Setup(setup)
	}

	return j, nil
}

// argPairs flattens a YAML mapping node into ordered flag/value pairs.
func argPairs(node yaml.Node) []job.Arg {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	args := make([]job.Arg, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		args = append(args, job.Arg{
			Flag:  node.Content[i].Value,
			Value: node.Content[i+1].Value,
		})
	}
	return args
}
