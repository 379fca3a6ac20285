package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/testfixtures"
)

func TestActionTokens_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	tokens := NewActionTokens("secret", time.Hour, clock.NowFunc())

	raw, err := tokens.Issue(42, ActionCancel)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.Parse(raw, ActionCancel)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AppointmentID != 42 || claims.Action != ActionCancel {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestActionTokens_Rejects(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	tokens := NewActionTokens("secret", time.Hour, clock.NowFunc())
	raw, err := tokens.Issue(7, ActionReschedule)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := tokens.Parse(raw, ActionCancel); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong action: expected ErrInvalidToken, got %v", err)
	}

	other := NewActionTokens("another-secret", time.Hour, clock.NowFunc())
	if _, err := other.Parse(raw, ActionReschedule); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: expected ErrInvalidToken, got %v", err)
	}

	if _, err := tokens.Parse("not-a-token", ActionReschedule); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: expected ErrInvalidToken, got %v", err)
	}

	clock.Advance(2 * time.Hour)
	if _, err := tokens.Parse(raw, ActionReschedule); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: expected ErrInvalidToken, got %v", err)
	}
}
