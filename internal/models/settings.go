package models

import "time"

// Settings is a singleton row (ID 1) with the shop's notification behaviour.
type Settings struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ReminderIntervals  string `gorm:"size:50;default:'24,3'" json:"reminder_intervals"`
	EarlyMorningCutoff string `gorm:"size:5;default:'09:30'" json:"early_morning_cutoff"`

	EmailSubjectTemplate string `gorm:"type:text" json:"email_subject_template"`
	EmailBodyTemplate    string `gorm:"type:text" json:"email_body_template"`
	SMSBodyTemplate      string `gorm:"type:text" json:"sms_body_template"`

	PickupEmailSubjectTemplate string `gorm:"type:text" json:"pickup_email_subject_template"`
	PickupEmailBodyTemplate    string `gorm:"type:text" json:"pickup_email_body_template"`
	PickupSMSBodyTemplate      string `gorm:"type:text" json:"pickup_sms_body_template"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
