package dto

import (
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/models"
)

type AppointmentListDTO struct {
	ID           uint      `json:"id"`
	Type         string    `json:"type"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	CustomerName string    `json:"customer_name"`
	PartyName    string    `json:"party_name,omitempty"`
	TailorName   string    `json:"tailor_name,omitempty"`
}

// AppointmentFromModel flattens whichever owner associations are loaded.
func AppointmentFromModel(ap models.Appointment) AppointmentListDTO {
	out := AppointmentListDTO{
		ID:        ap.ID,
		Type:      ap.Type,
		StartTime: ap.DateTime,
		EndTime:   ap.EndTime(),
		Status:    ap.Status,
	}

	switch {
	case ap.IndividualCustomer != nil:
		out.CustomerName = ap.IndividualCustomer.Name
	case ap.Member != nil && ap.Member.Customer != nil:
		out.CustomerName = ap.Member.Customer.Name
	case ap.Party != nil && ap.Party.Customer != nil:
		out.CustomerName = ap.Party.Customer.Name
	}
	if ap.Party != nil {
		out.PartyName = ap.Party.Name
	}
	if ap.Tailor != nil {
		out.TailorName = ap.Tailor.Name
	}
	return out
}
