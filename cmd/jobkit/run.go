package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/jobkit/internal/admin"
	"github.com/flemzord/jobkit/internal/config"
	"github.com/flemzord/jobkit/internal/history"
	"github.com/flemzord/jobkit/internal/job"
	"github.com/flemzord/jobkit/internal/mail"
	"github.com/flemzord/jobkit/internal/metrics"
	"github.com/flemzord/jobkit/internal/output"
	"github.com/flemzord/jobkit/internal/reload"
	"github.com/flemzord/jobkit/internal/schedule"
	"github.com/flemzord/jobkit/internal/scheduler"
	"github.com/flemzord/jobkit/internal/shell"
)

// daemon is the fully wired application: scheduler plus optional admin
// server and history store.
type daemon struct {
	scheduler *scheduler.Scheduler
	admin     *admin.Server  // nil = not configured
	history   *history.Store // nil = not configured
	logger    *slog.Logger
	cfgPath   string
}

// buildDaemon loads and validates the configuration, then wires every
// component: oracle, sinks, mailer, executor, scheduler, metrics,
// history, and the admin server.
func buildDaemon(cfgPath string) (*daemon, error) {
	if cfgPath == "" {
		resolved, err := resolveConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	var mailer job.Mailer
	if cfg.Mail != nil {
		smtp, err := mail.NewSMTP(*cfg.Mail)
		if err != nil {
			return nil, err
		}
		mailer = smtp
	}

	var from job.Address
	if cfg.Defaults.EmailFrom != nil {
		from = job.Address{Addr: cfg.Defaults.EmailFrom.Address, Name: cfg.Defaults.EmailFrom.Name}
	}

	executor := job.NewExecutor(job.ExecutorConfig{
		Sinks:  output.FileSink{},
		Mailer: mailer,
		Shell:  shell.Runner{},
		From:   from,
		Logger: logger,
	})

	var hist *history.Store
	if cfg.History != nil {
		hist, err = history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	sched := scheduler.New(scheduler.Config{
		Checker: job.DueChecker{
			Oracle:     schedule.NewCron(),
			Timestamps: output.Timestamps{},
		},
		Executor:   executor,
		Timestamps: output.Timestamps{},
		History:    hist,
		Metrics:    collector,
		Logger:     logger,
	})

	jobs, err := config.BuildJobs(cfg)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if err := sched.Register(j); err != nil {
			return nil, err
		}
	}

	d := &daemon{scheduler: sched, history: hist, logger: logger, cfgPath: cfgPath}

	if cfg.Admin != nil {
		srv, err := admin.New(admin.Config{Bind: cfg.Admin.Bind}, sched, hist, registry, logger)
		if err != nil {
			return nil, err
		}
		d.admin = srv
	}

	return d, nil
}

// start brings the daemon up.
func (d *daemon) start(ctx context.Context) error {
	if err := d.scheduler.Start(ctx); err != nil {
		return err
	}
	if d.admin != nil {
		if err := d.admin.Start(); err != nil {
			_ = d.scheduler.Stop(ctx)
			return err
		}
	}
	return nil
}

// stop tears the daemon down in reverse order.
func (d *daemon) stop(ctx context.Context) {
	if d.admin != nil {
		if err := d.admin.Stop(ctx); err != nil {
			d.logger.Error("admin stop failed", "error", err)
		}
	}
	if err := d.scheduler.Stop(ctx); err != nil {
		d.logger.Error("scheduler stop failed", "error", err)
	}
	if d.history != nil {
		if err := d.history.Close(); err != nil {
			d.logger.Error("history close failed", "error", err)
		}
	}
}

// runDaemon starts everything and blocks until SIGINT or SIGTERM.
func runDaemon(cfgPath string) error {
	d, err := buildDaemon(cfgPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := d.start(ctx); err != nil {
		return err
	}

	watcher := reload.NewWatcher(reload.WatcherConfig{Path: d.cfgPath})
	watcher.Start(ctx)
	defer watcher.Stop()
	handler := reload.NewHandler(d.scheduler, d.logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case path := <-watcher.Changes():
			d.logger.Info("configuration changed", "path", path)
			if err := handler.HandleReload(ctx, path); err != nil {
				d.logger.Error("reload failed, keeping current jobs", "error", err)
			}
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				d.logger.Info("reload signal received")
				if err := handler.HandleReload(ctx, d.cfgPath); err != nil {
					d.logger.Error("reload failed, keeping current jobs", "error", err)
				}
				continue
			}
			d.logger.Info("shutdown signal received", "signal", sig.String())
			d.stop(ctx)
			return nil
		}
	}
}

// runOnce executes a single named job and prints its output.
func runOnce(cfgPath, name string) error {
	d, err := buildDaemon(cfgPath)
	if err != nil {
		return err
	}
	defer func() {
		if d.history != nil {
			_ = d.history.Close()
		}
	}()

	out, err := d.scheduler.RunNow(context.Background(), name)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Print(out)
	}
	return nil
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/jobkit/jobkit.yaml →
// ~/.config/jobkit/jobkit.yaml → ./jobkit.yaml
func resolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "jobkit", "jobkit.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "jobkit", "jobkit.yaml"))
	}

	candidates = append(candidates, "jobkit.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
