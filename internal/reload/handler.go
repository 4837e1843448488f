package reload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/jobkit/internal/config"
	"github.com/flemzord/jobkit/internal/job"
)

// JobReplacer swaps the active job set (implemented by the scheduler).
type JobReplacer interface {
	Replace(jobs []*job.Job) error
}

// Handler applies a changed configuration to a running scheduler. A
// reload only touches the job set: transport settings (mail, admin
// bind, history path) keep their boot-time values until restart.
type Handler struct {
	scheduler JobReplacer
	logger    *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(scheduler JobReplacer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{scheduler: scheduler, logger: logger}
}

// HandleReload loads and validates the config at path and swaps the
// rebuilt job set into the scheduler. A config that fails to load or
// validate leaves the running jobs untouched.
func (h *Handler) HandleReload(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reload: cancelled: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	jobs, err := config.BuildJobs(cfg)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	if err := h.scheduler.Replace(jobs); err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	h.logger.Info("configuration reloaded", "jobs", len(jobs))
	return nil
}
