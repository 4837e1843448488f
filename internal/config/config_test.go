package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flemzord/jobkit/internal/job"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobkit.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
defaults:
  email_from:
    address: jobs@example.com
    name: Jobs
mail:
  host: smtp.example.com
  port: 587
jobs:
  - name: backup
    command: backup.sh
    args:
      --target: /data
      --level: full
    schedule: "0 2 * * *"
    output:
      mode: append
      files: [/log/backup.log]
    email: [ops@example.com]
    last_run_file: /var/lib/jobkit/backup.last
  - name: cleanup
    command: cleanup.sh
    every: daily
`

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(cfg.Jobs))
	}
	if cfg.Mail == nil || cfg.Mail.Host != "smtp.example.com" {
		t.Errorf("mail = %+v", cfg.Mail)
	}
	if cfg.Defaults.EmailFrom == nil || cfg.Defaults.EmailFrom.Address != "jobs@example.com" {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	path := writeConfig(t, `
jobs:
  - name: sync
    command: ${SYNC_CMD:-rsync.sh}
    every: hourly
  - name: push
    command: ${PUSH_CMD}
    every: hourly
`)

	t.Setenv("PUSH_CMD", "push.sh")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Jobs[0].Command != "rsync.sh" {
		t.Errorf("default not applied: %q", cfg.Jobs[0].Command)
	}
	if cfg.Jobs[1].Command != "push.sh" {
		t.Errorf("env not expanded: %q", cfg.Jobs[1].Command)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
jobs:
  - name: sync
    command: ${DEFINITELY_NOT_SET_ANYWHERE}
    every: hourly
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_ANYWHERE") {
		t.Errorf("err = %v, want unresolved variable report", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			"missing name",
			"jobs:\n  - command: x.sh\n    every: daily\n",
			"missing name",
		},
		{
			"duplicate name",
			"jobs:\n  - name: a\n    command: x.sh\n    every: daily\n  - name: a\n    command: y.sh\n    every: daily\n",
			"duplicate name",
		},
		{
			"missing command",
			"jobs:\n  - name: a\n    every: daily\n",
			"missing command",
		},
		{
			"no schedule",
			"jobs:\n  - name: a\n    command: x.sh\n",
			"needs a schedule",
		},
		{
			"both schedule and every",
			"jobs:\n  - name: a\n    command: x.sh\n    schedule: \"* * * * *\"\n    every: daily\n",
			"mutually exclusive",
		},
		{
			"bad cron",
			"jobs:\n  - name: a\n    command: x.sh\n    schedule: \"61 * * * *\"\n",
			"parse",
		},
		{
			"bad interval",
			"jobs:\n  - name: a\n    command: x.sh\n    every: fortnight\n",
			"invalid interval",
		},
		{
			"bad output mode",
			"jobs:\n  - name: a\n    command: x.sh\n    every: daily\n    output:\n      mode: truncate\n      files: [/tmp/a]\n",
			"output mode",
		},
		{
			"email without mail",
			"jobs:\n  - name: a\n    command: x.sh\n    every: daily\n    email: [ops@example.com]\n",
			"no mail transport",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tt.yaml)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			err = Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestBuildJobs(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	jobs, err := BuildJobs(cfg)
	if err != nil {
		t.Fatalf("BuildJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}

	backup := jobs[0]
	if backup.Name() != "backup" || backup.Schedule() != "0 2 * * *" {
		t.Errorf("backup = %q schedule %q", backup.Name(), backup.Schedule())
	}

	// Argument order must follow the YAML file.
	args := backup.Args()
	if len(args) != 2 || args[0].Flag != "--target" || args[1].Flag != "--level" {
		t.Errorf("args = %v", args)
	}

	if backup.OutputMode() != job.Append {
		t.Errorf("mode = %v, want Append", backup.OutputMode())
	}
	if backup.Background() {
		t.Error("email recipients must force foreground")
	}
	if backup.LastRunFile() != "/var/lib/jobkit/backup.last" {
		t.Errorf("last run file = %q", backup.LastRunFile())
	}
	if backup.From().Addr != "jobs@example.com" {
		t.Errorf("from = %+v, want default sender applied", backup.From())
	}

	cleanup := jobs[1]
	if cleanup.Schedule() != "0 0 * * *" {
		t.Errorf("cleanup schedule = %q, want daily expression", cleanup.Schedule())
	}
	if !cleanup.Background() {
		t.Error("cleanup should stay in background mode")
	}
}
