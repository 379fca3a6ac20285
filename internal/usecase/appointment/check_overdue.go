package appointment

import (
	"context"
	"log/slog"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/audit"
	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/dto"
	"github.com/cpg716/SuitSync-sub003/internal/logging"
)

// OverdueGrace is how long after its end an open appointment is reported.
const OverdueGrace = 24 * time.Hour

// CheckOverdueAppointments reports scheduled or confirmed appointments that
// ended more than OverdueGrace ago and were never closed out.
type CheckOverdueAppointments struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	now    func() time.Time
	logger *slog.Logger
}

func NewCheckOverdueAppointments(
	repo domain.Repository,
	audit *audit.Dispatcher,
	now func() time.Time,
	logger *slog.Logger,
) *CheckOverdueAppointments {
	if now == nil {
		now = time.Now
	}
	return &CheckOverdueAppointments{
		repo:   repo,
		audit:  audit,
		now:    now,
		logger: logging.Default(logger),
	}
}

func (uc *CheckOverdueAppointments) Execute(ctx context.Context) ([]dto.AppointmentListDTO, error) {
	lg := logging.Service(ctx, uc.logger, "appointment", "check_overdue")

	apps, err := uc.repo.ListOverdue(ctx, uc.now().Add(-OverdueGrace))
	if err != nil {
		return nil, err
	}

	out := make([]dto.AppointmentListDTO, 0, len(apps))
	for _, ap := range apps {
		item := dto.AppointmentFromModel(ap)
		out = append(out, item)

		lg.Warn("appointment overdue",
			"appointment_id", ap.ID,
			"type", ap.Type,
			"status", ap.Status,
			"ended_at", item.EndTime,
		)

		id := ap.ID
		uc.audit.Dispatch(audit.Event{
			Action:   "appointment_overdue",
			Entity:   "appointment",
			EntityID: &id,
			Metadata: map[string]any{"status": ap.Status, "ended_at": item.EndTime},
		})
	}

	if len(out) > 0 {
		lg.Info("overdue appointments found", "count", len(out))
	}
	return out, nil
}
