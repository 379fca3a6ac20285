package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func TestCancel(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	for _, st := range []Status{StatusScheduled, StatusConfirmed, StatusRescheduled} {
		ap := &models.Appointment{Status: string(st)}
		if err := Cancel(ap, now); err != nil {
			t.Fatalf("%s: unexpected error %v", st, err)
		}
		if ap.Status != string(StatusCancelled) || ap.CancelledAt == nil || !ap.CancelledAt.Equal(now) {
			t.Fatalf("%s: unexpected appointment %+v", st, ap)
		}
	}

	for _, st := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		ap := &models.Appointment{Status: string(st)}
		if err := Cancel(ap, now); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("%s: expected ErrInvalidState, got %v", st, err)
		}
		if ap.Status != string(st) {
			t.Fatalf("%s: status must not change", st)
		}
	}
}

func TestComplete_Idempotent(t *testing.T) {
	t.Parallel()

	first := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	ap := &models.Appointment{Status: string(StatusScheduled)}

	if !Complete(ap, first) {
		t.Fatal("expected first completion to change the appointment")
	}
	if Complete(ap, first.Add(time.Hour)) {
		t.Fatal("second completion must be a no-op")
	}
	if !ap.CompletedAt.Equal(first) {
		t.Fatalf("completed_at moved to %s", ap.CompletedAt)
	}
}

func TestValidateOwnership(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ap   models.Appointment
		ok   bool
	}{
		{"member", models.Appointment{PartyID: uintPtr(1), MemberID: uintPtr(2)}, true},
		{"individual", models.Appointment{IndividualCustomerID: uintPtr(3)}, true},
		{"both", models.Appointment{PartyID: uintPtr(1), MemberID: uintPtr(2), IndividualCustomerID: uintPtr(3)}, false},
		{"neither", models.Appointment{}, false},
		{"party without member", models.Appointment{PartyID: uintPtr(1)}, false},
	}

	for _, tc := range cases {
		err := ValidateOwnership(&tc.ap)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok {
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.FieldErrors["owner"] == "" {
				t.Fatalf("%s: expected owner validation error, got %v", tc.name, err)
			}
		}
	}

	if !BelongsToMember(&models.Appointment{PartyID: uintPtr(1), MemberID: uintPtr(2)}) {
		t.Fatal("expected member appointment")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":               nil,
		"not_found":      ErrNotFound,
		"already_exists": ErrAlreadyExists,
		"invalid_state":  ErrInvalidState,
		"validation":     &ValidationError{FieldErrors: map[string]string{"x": "y"}},
		"unexpected":     errors.New("boom"),
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
