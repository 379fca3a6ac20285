package appointment

import (
	"context"
	"log/slog"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/audit"
	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/logging"
	"github.com/cpg716/SuitSync-sub003/internal/models"
)

// PendingCanceller drops the unsent notifications of an appointment.
type PendingCanceller interface {
	CancelPending(ctx context.Context, appointmentID uint) (int64, error)
}

type CancelAppointment struct {
	repo    domain.Repository
	pending PendingCanceller
	audit   *audit.Dispatcher
	now     func() time.Time
	logger  *slog.Logger
}

func NewCancelAppointment(
	repo domain.Repository,
	pending PendingCanceller,
	audit *audit.Dispatcher,
	now func() time.Time,
	logger *slog.Logger,
) *CancelAppointment {
	if now == nil {
		now = time.Now
	}
	return &CancelAppointment{
		repo:    repo,
		pending: pending,
		audit:   audit,
		now:     now,
		logger:  logging.Default(logger),
	}
}

// Execute cancels the appointment and removes its pending reminders. userID
// is nil when the customer cancels through a signed link.
func (uc *CancelAppointment) Execute(
	ctx context.Context,
	userID *uint,
	appointmentID uint,
) (*models.Appointment, error) {

	var ap *models.Appointment
	err := uc.repo.WithinTx(ctx, func(tx domain.Repository) error {
		// locked read: a concurrent reminder refresh waits for the commit
		locked, err := tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		if err := domain.Cancel(locked, uc.now()); err != nil {
			return err
		}
		if err := tx.UpdateAppointment(ctx, locked); err != nil {
			return err
		}
		ap = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	removed, err := uc.pending.CancelPending(ctx, ap.ID)
	if err != nil {
		logging.Service(ctx, uc.logger, "appointment", "cancel", "appointment_id", ap.ID).
			Warn("pending notifications not removed", "error", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   "appointment_cancelled",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{"notifications_removed": removed, "self_service": userID == nil},
	})

	return ap, nil
}
