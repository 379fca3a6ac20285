package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/models"
)

const settingsID = 1

type AppointmentGormRepository struct {
	db *gorm.DB
	// set inside WithinTx: appointment reads take a row lock
	locking bool
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Transaction
// --------------------------------------------------

func (r *AppointmentGormRepository) WithinTx(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AppointmentGormRepository{db: tx, locking: true})
	})
}

func (r *AppointmentGormRepository) forUpdate(q *gorm.DB) *gorm.DB {
	if r.locking {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.forUpdate(r.db.WithContext(ctx)).
		First(&ap, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) GetAppointmentWithOwners(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.forUpdate(r.db.WithContext(ctx)).
		Preload("Party.Customer").
		Preload("Member.Customer").
		Preload("IndividualCustomer").
		Preload("Tailor").
		First(&ap, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Create(ap).Error)
}

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Save(ap).Error)
}

func (r *AppointmentGormRepository) MarkRemindersScheduled(
	ctx context.Context,
	appointmentID uint,
) error {
	return markRemindersScheduled(r.db.WithContext(ctx), appointmentID)
}

func markRemindersScheduled(db *gorm.DB, appointmentID uint) error {
	res := db.Model(&models.Appointment{}).
		Where("id = ?", appointmentID).
		Update("reminders_scheduled", true)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AppointmentGormRepository) ListAppointmentsForCustomer(
	ctx context.Context,
	customerID uint,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where("individual_customer_id = ?", customerID).
		Order("date_time ASC, id ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForMember(
	ctx context.Context,
	memberID uint,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("date_time ASC, id ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) ListOverdue(
	ctx context.Context,
	endedBefore time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("IndividualCustomer").
		Preload("Party.Customer").
		Preload("Member.Customer").
		Where("status IN ?", []string{
			string(domain.StatusScheduled),
			string(domain.StatusConfirmed),
		}).
		Where("date_time + make_interval(mins => duration_minutes) < ?", endedBefore).
		Order("date_time ASC, id ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// --------------------------------------------------
// Party / Member
// --------------------------------------------------

func (r *AppointmentGormRepository) GetPartyWithMembers(
	ctx context.Context,
	partyID uint,
) (*models.Party, error) {

	var party models.Party
	if err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&party, partyID).Error; err != nil {
		return nil, mapError(err)
	}
	return &party, nil
}

func (r *AppointmentGormRepository) GetMember(
	ctx context.Context,
	partyID uint,
	memberID uint,
) (*models.PartyMember, error) {

	var m models.PartyMember
	if err := r.db.WithContext(ctx).
		Where("id = ? AND party_id = ?", memberID, partyID).
		First(&m).Error; err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

func (r *AppointmentGormRepository) UpdateMemberStatus(
	ctx context.Context,
	memberID uint,
	status string,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.PartyMember{}).
		Where("id = ?", memberID).
		Update("status", status)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --------------------------------------------------
// Alteration Job
// --------------------------------------------------

func (r *AppointmentGormRepository) FindAlterationJobByMember(
	ctx context.Context,
	memberID uint,
) (*models.AlterationJob, error) {

	var job models.AlterationJob
	if err := r.db.WithContext(ctx).
		Where("party_member_id = ?", memberID).
		First(&job).Error; err != nil {
		return nil, mapError(err)
	}
	return &job, nil
}

func (r *AppointmentGormRepository) CreateAlterationJob(
	ctx context.Context,
	job *models.AlterationJob,
) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Create(job).Error)
}

// --------------------------------------------------
// Settings
// --------------------------------------------------

func (r *AppointmentGormRepository) GetSettings(
	ctx context.Context,
) (*models.Settings, error) {

	var s models.Settings
	if err := r.db.WithContext(ctx).First(&s, settingsID).Error; err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *AppointmentGormRepository) SaveSettings(
	ctx context.Context,
	s *models.Settings,
) error {
	s.ID = settingsID
	return mapError(r.db.WithContext(ctx).Save(s).Error)
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
