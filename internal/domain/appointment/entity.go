package appointment

import (
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

// Complete marks the appointment completed. Completing twice is a no-op and
// reports changed=false.
func Complete(ap *models.Appointment, now time.Time) (changed bool) {
	if Status(ap.Status) == StatusCompleted {
		return false
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return true
}

// ValidateOwnership enforces that an appointment belongs to exactly one of
// a party member or an individual customer.
func ValidateOwnership(ap *models.Appointment) error {
	party := ap.PartyID != nil && ap.MemberID != nil
	individual := ap.IndividualCustomerID != nil

	vErr := &ValidationError{}
	switch {
	case party && individual:
		vErr.Add("owner", "must be either a party member or an individual customer, not both")
	case !party && !individual:
		if ap.PartyID != nil || ap.MemberID != nil {
			vErr.Add("owner", "party appointments need both party_id and member_id")
		} else {
			vErr.Add("owner", "is required")
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// BelongsToMember reports whether the appointment is owned by a party member.
func BelongsToMember(ap *models.Appointment) bool {
	return ap.PartyID != nil && ap.MemberID != nil
}
