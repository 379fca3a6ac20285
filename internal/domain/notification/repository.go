package notification

import (
	"context"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/models"
)

type Repository interface {
	// ReplaceReminders deletes every unsent entry of the given types for the
	// appointment, inserts rows and flags the appointment as having reminders,
	// all in one transaction. The status is read under the appointment lock;
	// a cancelled or otherwise closed appointment gets no new rows.
	ReplaceReminders(
		ctx context.Context,
		appointmentID uint,
		types []Type,
		rows []models.NotificationSchedule,
	) error

	CreateSchedules(
		ctx context.Context,
		rows []models.NotificationSchedule,
	) error

	// DeleteUnsent removes every unsent entry for the appointment.
	DeleteUnsent(
		ctx context.Context,
		appointmentID uint,
	) (int64, error)

	ListForAppointment(
		ctx context.Context,
		appointmentID uint,
	) ([]models.NotificationSchedule, error)

	// ListDue returns unsent entries with scheduled_for <= now, earliest first.
	ListDue(
		ctx context.Context,
		now time.Time,
		limit int,
	) ([]models.NotificationSchedule, error)

	// MarkSent flags the row as delivered. It reports false when the row was
	// deleted or already sent in the meantime.
	MarkSent(
		ctx context.Context,
		id uint,
		sentAt time.Time,
	) (bool, error)

	MarkFailed(
		ctx context.Context,
		id uint,
		reason string,
	) error

	ListSentBefore(
		ctx context.Context,
		cutoff time.Time,
	) ([]models.NotificationSchedule, error)

	DeleteSentBefore(
		ctx context.Context,
		cutoff time.Time,
	) (int64, error)
}
