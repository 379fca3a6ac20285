package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/domain/notification"
	"github.com/cpg716/SuitSync-sub003/internal/models"
)

type NotificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationGormRepository(db *gorm.DB) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

// --------------------------------------------------
// Scheduling
// --------------------------------------------------

// ReplaceReminders locks the appointment row, so concurrent reschedules of
// one appointment serialize, and locks the unsent rows it deletes, so a
// sweep cannot mark them sent mid-replace. The status is checked under the
// lock: a cancel that committed after the caller read the appointment leaves
// nothing to insert.
func (r *NotificationGormRepository) ReplaceReminders(
	ctx context.Context,
	appointmentID uint,
	types []notification.Type,
	rows []models.NotificationSchedule,
) error {

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ap models.Appointment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			First(&ap, appointmentID).Error; err != nil {
			return mapError(err)
		}
		if !domain.IsOpen(domain.Status(ap.Status)) {
			rows = nil
		}

		var stale []uint
		if err := tx.Model(&models.NotificationSchedule{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("appointment_id = ? AND sent = ? AND type IN ?", appointmentID, false, names).
			Pluck("id", &stale).Error; err != nil {
			return err
		}

		if len(stale) > 0 {
			if err := tx.Where("id IN ?", stale).
				Delete(&models.NotificationSchedule{}).Error; err != nil {
				return err
			}
		}

		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return mapError(err)
			}
		}

		return markRemindersScheduled(tx, appointmentID)
	})
}

func (r *NotificationGormRepository) CreateSchedules(
	ctx context.Context,
	rows []models.NotificationSchedule,
) error {
	if len(rows) == 0 {
		return nil
	}
	return mapError(r.db.WithContext(ctx).Create(&rows).Error)
}

func (r *NotificationGormRepository) DeleteUnsent(
	ctx context.Context,
	appointmentID uint,
) (int64, error) {

	res := r.db.WithContext(ctx).
		Where("appointment_id = ? AND sent = ?", appointmentID, false).
		Delete(&models.NotificationSchedule{})
	return res.RowsAffected, res.Error
}

func (r *NotificationGormRepository) ListForAppointment(
	ctx context.Context,
	appointmentID uint,
) ([]models.NotificationSchedule, error) {

	var rows []models.NotificationSchedule
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("scheduled_for ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// --------------------------------------------------
// Delivery
// --------------------------------------------------

func (r *NotificationGormRepository) ListDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]models.NotificationSchedule, error) {

	q := r.db.WithContext(ctx).
		Where("sent = ? AND scheduled_for <= ?", false, now).
		Order("scheduled_for ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.NotificationSchedule
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkSent is a conditional update: a row deleted by a concurrent reschedule
// or already marked sent is left alone and reported as false.
func (r *NotificationGormRepository) MarkSent(
	ctx context.Context,
	id uint,
	sentAt time.Time,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.NotificationSchedule{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"sent":       true,
			"sent_at":    sentAt,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *NotificationGormRepository) MarkFailed(
	ctx context.Context,
	id uint,
	reason string,
) error {

	return r.db.WithContext(ctx).
		Model(&models.NotificationSchedule{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}

// --------------------------------------------------
// Housekeeping
// --------------------------------------------------

func (r *NotificationGormRepository) ListSentBefore(
	ctx context.Context,
	cutoff time.Time,
) ([]models.NotificationSchedule, error) {

	var rows []models.NotificationSchedule
	if err := r.db.WithContext(ctx).
		Where("sent = ? AND sent_at < ?", true, cutoff).
		Order("sent_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *NotificationGormRepository) DeleteSentBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {

	res := r.db.WithContext(ctx).
		Where("sent = ? AND sent_at < ?", true, cutoff).
		Delete(&models.NotificationSchedule{})
	return res.RowsAffected, res.Error
}

// Compile-time check
var _ notification.Repository = (*NotificationGormRepository)(nil)
