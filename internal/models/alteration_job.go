package models

import "time"

type AlterationJob struct {
	ID uint `gorm:"primaryKey" json:"id"`

	JobNumber string `gorm:"size:40;uniqueIndex;not null" json:"job_number"`

	// one job per member
	PartyMemberID *uint        `gorm:"uniqueIndex" json:"party_member_id"`
	PartyMember   *PartyMember `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"party_member,omitempty"`

	PartyID       *uint `gorm:"index" json:"party_id"`
	AppointmentID *uint `json:"appointment_id"`

	Status  string     `gorm:"size:20;default:'NOT_STARTED'" json:"status"`
	DueDate *time.Time `json:"due_date"`
	Notes   string     `gorm:"size:255" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
