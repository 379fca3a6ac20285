// Package notification defines the reminder vocabulary and the schedule store contract.
package notification

// Type identifies a reminder family or the pickup notice.
type Type string

const (
	TypeReminder24h Type = "appointment_reminder_24h"
	TypeReminder3h  Type = "appointment_reminder_3h"
	TypeReminder1h  Type = "appointment_reminder_1h"
	TypePickupReady Type = "pickup_ready"
)

// ReminderTypes are the families replaced when an appointment is (re)scheduled.
var ReminderTypes = []Type{TypeReminder24h, TypeReminder3h, TypeReminder1h}

// Classify buckets an hour offset into its reminder family.
func Classify(hours float64) Type {
	switch {
	case hours >= 24:
		return TypeReminder24h
	case hours >= 3:
		return TypeReminder3h
	default:
		return TypeReminder1h
	}
}

type Method string

const (
	MethodEmail Method = "email"
	MethodSMS   Method = "sms"
	MethodBoth  Method = "both"
)

// Fallbacks applied when the settings row is missing or blank.
const (
	DefaultReminderIntervals  = "24,3"
	DefaultEarlyMorningCutoff = "09:30"
)
