package notification

import (
	"strings"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/models"
)

const (
	defaultEmailSubject = "Reminder: your {appointmentType} at {shopName}"
	defaultEmailBody    = "Hi {customerName},\n\n" +
		"This is a reminder of your {appointmentType} appointment on {dateTime} with {staffFirstName}.\n\n" +
		"Need to change it?\nReschedule: {rescheduleUrl}\nCancel: {cancelUrl}\n\n" +
		"See you soon,\n{shopName}"
	defaultSMSBody = "{shopName}: reminder of your {appointmentType} on {dateTime}. Reschedule: {rescheduleUrl}"

	defaultPickupEmailSubject = "Your garments are ready at {shopName}"
	defaultPickupEmailBody    = "Hi {customerName},\n\n" +
		"Good news: your garments are ready for pickup at {shopName}.\n\n" +
		"See you soon,\n{shopName}"
	defaultPickupSMSBody = "{shopName}: {customerName}, your garments are ready for pickup."

	dateTimeLayout = "Monday, January 2, 2006 at 3:04 PM"
)

// templateSet is the resolved set of templates for one kind of message.
type templateSet struct {
	Subject string
	Email   string
	SMS     string
}

func reminderTemplates(s *models.Settings) templateSet {
	return templateSet{
		Subject: orDefault(s.EmailSubjectTemplate, defaultEmailSubject),
		Email:   orDefault(s.EmailBodyTemplate, defaultEmailBody),
		SMS:     orDefault(s.SMSBodyTemplate, defaultSMSBody),
	}
}

func pickupTemplates(s *models.Settings) templateSet {
	return templateSet{
		Subject: orDefault(s.PickupEmailSubjectTemplate, defaultPickupEmailSubject),
		Email:   orDefault(s.PickupEmailBodyTemplate, defaultPickupEmailBody),
		SMS:     orDefault(s.PickupSMSBodyTemplate, defaultPickupSMSBody),
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// TemplateVars are the values substituted into message templates.
type TemplateVars struct {
	CustomerName    string
	PartyName       string
	DateTime        time.Time
	Location        *time.Location
	ShopName        string
	StaffName       string
	AppointmentType string
	RescheduleURL   string
	CancelURL       string
}

// Render replaces the known {placeholders} in tpl. Unknown tokens are left as is.
func Render(tpl string, v TemplateVars) string {
	loc := v.Location
	if loc == nil {
		loc = time.Local
	}

	staff := "our staff"
	if fields := strings.Fields(v.StaffName); len(fields) > 0 {
		staff = fields[0]
	}

	return strings.NewReplacer(
		"{customerName}", v.CustomerName,
		"{partyName}", v.PartyName,
		"{dateTime}", v.DateTime.In(loc).Format(dateTimeLayout),
		"{shopName}", v.ShopName,
		"{staffFirstName}", staff,
		"{appointmentType}", strings.ReplaceAll(v.AppointmentType, "_", " "),
		"{rescheduleUrl}", v.RescheduleURL,
		"{cancelUrl}", v.CancelURL,
	).Replace(tpl)
}
