// Package config handles YAML configuration loading, environment
// variable expansion, and structural validation for jobkit.
package config

import (
	"gopkg.in/yaml.v3"

	"github.com/flemzord/jobkit/internal/mail"
)

// Config is the top-level configuration structure.
type Config struct {
	// Defaults apply to every job unless the job overrides them.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Mail configures the SMTP transport. Required when any job lists
	// email recipients.
	Mail *mail.Config `yaml:"mail,omitempty"`

	// History configures the execution history database. Omitted means
	// runs are not recorded.
	History *HistoryConfig `yaml:"history,omitempty"`

	// Admin configures the HTTP admin/metrics server. Omitted means no
	// server is started.
	Admin *AdminConfig `yaml:"admin,omitempty"`

	// Jobs is the set of scheduled jobs.
	Jobs []JobConfig `yaml:"jobs"`
}

// Defaults holds per-job fallbacks.
type Defaults struct {
	// EmailFrom is the sender identity used when a job does not set
	// its own.
	EmailFrom *FromConfig `yaml:"email_from,omitempty"`
}

// FromConfig is a sender identity.
type FromConfig struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name,omitempty"`
}

// HistoryConfig locates the run database.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	// Bind is the listen address. Defaults to loopback.
	Bind string `yaml:"bind,omitempty"`
}

// JobConfig describes one scheduled shell job.
type JobConfig struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`

	// Args is an ordered flag-to-value mapping. Kept as a yaml.Node so
	// the file's insertion order survives into the compiled command.
	Args yaml.Node `yaml:"args,omitempty"`

	// Schedule is a raw 5-field cron expression. Mutually exclusive
	// with Every.
	Schedule string `yaml:"schedule,omitempty"`

	// Every is a coarse interval keyword ("daily", "5 minutes", ...).
	Every string `yaml:"every,omitempty"`

	Output *OutputConfig `yaml:"output,omitempty"`

	// Email lists recipients for the captured output. Non-empty forces
	// foreground execution.
	Email []string `yaml:"email,omitempty"`

	// EmailFrom overrides the default sender for this job.
	EmailFrom *FromConfig `yaml:"email_from,omitempty"`

	// LastRunFile switches the due-check to last-execution tracking
	// with catch-up semantics.
	LastRunFile string `yaml:"last_run_file,omitempty"`

	// Foreground disables background execution.
	Foreground bool `yaml:"foreground,omitempty"`

	// EscapeArgs shell-escapes argument values instead of the legacy
	// bare double-quoting.
	EscapeArgs bool `yaml:"escape_args,omitempty"`
}

// OutputConfig routes job output to files.
type OutputConfig struct {
	// Mode is "overwrite" (default) or "append". One mode applies to
	// all files of the job.
	Mode string `yaml:"mode,omitempty"`

	Files []string `yaml:"files"`
}
