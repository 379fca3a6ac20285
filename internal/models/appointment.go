package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// party + member OR individual customer, never both
	PartyID  *uint        `gorm:"index" json:"party_id"`
	Party    *Party       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"party,omitempty"`
	MemberID *uint        `gorm:"index" json:"member_id"`
	Member   *PartyMember `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"member,omitempty"`

	IndividualCustomerID *uint     `gorm:"index" json:"individual_customer_id"`
	IndividualCustomer   *Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"individual_customer,omitempty"`

	TailorID *uint `json:"tailor_id"`
	Tailor   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"tailor,omitempty"`

	Type            string    `gorm:"size:40;not null" json:"type"`
	Status          string    `gorm:"size:20;default:'scheduled'" json:"status"`
	DateTime        time.Time `gorm:"index" json:"date_time"`
	DurationMinutes int       `gorm:"default:60" json:"duration_minutes"`

	WorkflowStage      *int  `json:"workflow_stage"`
	AutoScheduleNext   bool  `gorm:"default:false" json:"auto_schedule_next"`
	ParentID           *uint `json:"parent_id"`
	RemindersScheduled bool  `gorm:"default:false" json:"reminders_scheduled"`

	Notes       string     `gorm:"size:255" json:"notes"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Appointment) EndTime() time.Time {
	return a.DateTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}
