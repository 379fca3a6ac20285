package appointment

import (
	"context"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/models"
)

type Repository interface {
	// -------- Transaction --------
	WithinTx(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// -------- Appointment --------
	GetAppointment(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	// GetAppointmentWithOwners preloads party (with contact customer),
	// member (with customer), individual customer and tailor.
	GetAppointmentWithOwners(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	MarkRemindersScheduled(
		ctx context.Context,
		appointmentID uint,
	) error

	ListAppointmentsForCustomer(
		ctx context.Context,
		customerID uint,
	) ([]models.Appointment, error)

	ListAppointmentsForMember(
		ctx context.Context,
		memberID uint,
	) ([]models.Appointment, error)

	// ListOverdue returns open appointments that ended before the cutoff.
	ListOverdue(
		ctx context.Context,
		endedBefore time.Time,
	) ([]models.Appointment, error)

	// -------- Party / Member --------
	GetPartyWithMembers(
		ctx context.Context,
		partyID uint,
	) (*models.Party, error)

	GetMember(
		ctx context.Context,
		partyID uint,
		memberID uint,
	) (*models.PartyMember, error)

	UpdateMemberStatus(
		ctx context.Context,
		memberID uint,
		status string,
	) error

	// -------- Alteration Job --------
	FindAlterationJobByMember(
		ctx context.Context,
		memberID uint,
	) (*models.AlterationJob, error)

	CreateAlterationJob(
		ctx context.Context,
		job *models.AlterationJob,
	) error

	// -------- Settings --------
	GetSettings(
		ctx context.Context,
	) (*models.Settings, error)

	SaveSettings(
		ctx context.Context,
		s *models.Settings,
	) error
}
