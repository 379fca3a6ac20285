package models

import "time"

type NotificationSchedule struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AppointmentID uint `gorm:"index;not null" json:"appointment_id"`

	Type         string    `gorm:"size:40;not null" json:"type"`
	ScheduledFor time.Time `gorm:"index" json:"scheduled_for"`
	Method       string    `gorm:"size:10;not null" json:"method"`
	Recipient    string    `gorm:"size:120;not null" json:"recipient"`
	Subject      string    `gorm:"size:255" json:"subject"`
	Message      string    `gorm:"type:text" json:"message"`

	Sent      bool       `gorm:"index;default:false" json:"sent"`
	SentAt    *time.Time `json:"sent_at"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	LastError string     `gorm:"size:255" json:"last_error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
