package models

import "time"

type Party struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name      string     `gorm:"size:120;not null" json:"name"`
	EventDate *time.Time `json:"event_date"`
	Notes     string     `gorm:"size:255" json:"notes"`

	// primary contact for the event
	CustomerID *uint     `json:"customer_id"`
	Customer   *Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"customer,omitempty"`

	Members []PartyMember `json:"members,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PartyMember struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PartyID uint   `gorm:"index;not null" json:"party_id"`
	Party   *Party `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"party,omitempty"`

	CustomerID *uint     `json:"customer_id"`
	Customer   *Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"customer,omitempty"`

	Role   string `gorm:"size:50" json:"role"`
	Status string `gorm:"size:40;default:'Selected'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
