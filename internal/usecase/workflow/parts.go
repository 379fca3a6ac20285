package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/logging"
)

type PartsOptions struct {
	DueDate  *time.Time
	TailorID *uint
}

// PartsScheduler assigns the individual garment parts of an alteration job
// to tailors. It is called best-effort when a job is opened.
type PartsScheduler interface {
	ScheduleJobParts(ctx context.Context, jobID uint, opts PartsOptions) error
}

// LogPartsScheduler only records that a job is waiting for part assignment.
// Shops that assign parts by hand run with it.
type LogPartsScheduler struct {
	logger *slog.Logger
}

func NewLogPartsScheduler(logger *slog.Logger) *LogPartsScheduler {
	return &LogPartsScheduler{logger: logging.Default(logger)}
}

func (p *LogPartsScheduler) ScheduleJobParts(ctx context.Context, jobID uint, opts PartsOptions) error {
	attrs := []any{"job_id", jobID}
	if opts.DueDate != nil {
		attrs = append(attrs, "due_date", opts.DueDate.Format(time.DateOnly))
	}
	if opts.TailorID != nil {
		attrs = append(attrs, "tailor_id", *opts.TailorID)
	}
	logging.Service(ctx, p.logger, "workflow", "schedule_parts").Info("alteration job awaiting part assignment", attrs...)
	return nil
}

var _ PartsScheduler = (*LogPartsScheduler)(nil)
