package appointment

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusCompleted   Status = "completed"
	StatusNoShow      Status = "no_show"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

// ===============================
// Appointment Type
// ===============================

// Type is free-form; the three timeline types below drive the workflow.
type Type string

const (
	TypeFirstFitting       Type = "first_fitting"
	TypeAlterationsFitting Type = "alterations_fitting"
	TypePickup             Type = "pickup"
)

// ===============================
// Validations
// ===============================

// CanCancel reports whether an appointment in the given status may be cancelled.
func CanCancel(current Status) error {
	switch current {
	case StatusScheduled, StatusConfirmed, StatusRescheduled:
		return nil
	}
	return ErrInvalidState
}

// IsOpen reports whether the appointment still expects the customer to show up.
func IsOpen(current Status) bool {
	return current == StatusScheduled || current == StatusConfirmed
}

func InitialStatus() Status {
	return StatusScheduled
}
