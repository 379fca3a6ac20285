package timeline

import (
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
)

// suggestedHour is the local time of day every suggestion lands on.
const suggestedHour = 10

// SuggestNextAppointmentDate proposes a date for an appointment of type t
// ahead of eventDate. Unknown types yield nil. The result is 10:00 in loc and
// never on a weekend.
func SuggestNextAppointmentDate(eventDate time.Time, t appointment.Type, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.Local
	}
	d := eventDate.In(loc)

	switch t {
	case appointment.TypeFirstFitting:
		d = d.AddDate(0, -3, 0)
	case appointment.TypeAlterationsFitting:
		d = d.AddDate(0, -1, -14)
	case appointment.TypePickup:
		d = d.AddDate(0, 0, -7)
	default:
		return nil
	}

	out := atSuggestedHour(shiftOffWeekend(d), loc)
	return &out
}

// SuggestFollowUpDate is the day-based variant used when a stage completes:
// the catalog's SuggestedDaysFromEvent for the next stage, same weekend rule.
func SuggestFollowUpDate(eventDate time.Time, next Stage, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	d := eventDate.In(loc).AddDate(0, 0, next.SuggestedDaysFromEvent)
	return atSuggestedHour(shiftOffWeekend(d), loc)
}

// Saturday moves back one day, Sunday two.
func shiftOffWeekend(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	}
	return d
}

func atSuggestedHour(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), suggestedHour, 0, 0, 0, loc)
}
