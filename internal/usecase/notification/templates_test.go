package notification

import (
	"testing"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/models"
)

func TestRender(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	vars := TemplateVars{
		CustomerName:    "Ana",
		PartyName:       "Smith Wedding",
		DateTime:        time.Date(2024, 10, 3, 18, 30, 0, 0, time.UTC),
		Location:        ny,
		ShopName:        "Tailor & Co",
		StaffName:       "Luigi Rossi",
		AppointmentType: "first_fitting",
		CancelURL:       "https://x/cancel",
	}

	got := Render("{customerName}|{partyName}|{dateTime}|{staffFirstName}|{appointmentType}|{cancelUrl}|{unknown}", vars)
	want := "Ana|Smith Wedding|Thursday, October 3, 2024 at 2:30 PM|Luigi|first fitting|https://x/cancel|{unknown}"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRender_StaffFallback(t *testing.T) {
	t.Parallel()

	if got := Render("with {staffFirstName}", TemplateVars{Location: time.UTC}); got != "with our staff" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestTemplates_SettingsOverrideDefaults(t *testing.T) {
	t.Parallel()

	set := reminderTemplates(&models.Settings{SMSBodyTemplate: "custom {shopName}", EmailBodyTemplate: "   "})
	if set.SMS != "custom {shopName}" {
		t.Fatalf("expected custom sms template, got %q", set.SMS)
	}
	if set.Email != defaultEmailBody || set.Subject != defaultEmailSubject {
		t.Fatal("blank templates must fall back to defaults")
	}

	pickup := pickupTemplates(&models.Settings{})
	if pickup.Email != defaultPickupEmailBody {
		t.Fatal("expected default pickup body")
	}
}
