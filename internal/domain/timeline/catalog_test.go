package timeline

import (
	"testing"

	"github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
)

func TestStagesOrder(t *testing.T) {
	t.Parallel()

	got := Stages()
	want := []appointment.Type{
		appointment.TypeFirstFitting,
		appointment.TypeAlterationsFitting,
		appointment.TypePickup,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(got))
	}
	for i, s := range got {
		if s.Type != want[i] || s.Stage != i+1 {
			t.Fatalf("stage %d: got %+v", i, s)
		}
	}

	got[0].Name = "mutated"
	if Stages()[0].Name == "mutated" {
		t.Fatal("Stages must return a copy")
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	next, ok := Next(appointment.TypeFirstFitting)
	if !ok || next.Type != appointment.TypeAlterationsFitting {
		t.Fatalf("expected alterations fitting after first fitting, got %+v", next)
	}
	next, ok = Next(appointment.TypeAlterationsFitting)
	if !ok || next.Type != appointment.TypePickup {
		t.Fatalf("expected pickup after alterations, got %+v", next)
	}
	if _, ok := Next(appointment.TypePickup); ok {
		t.Fatal("pickup is terminal")
	}
	if _, ok := Next("consultation"); ok {
		t.Fatal("unknown types have no successor")
	}
}

func TestPercentage(t *testing.T) {
	t.Parallel()

	cases := map[WorkflowStage]int{
		WorkflowSelected: 14,
		WorkflowMeasured: 29,
		WorkflowOrdered:  43,
		WorkflowAltered:  71,
		WorkflowReady:    86,
		WorkflowPickedUp: 100,
		"Unknown":        0,
	}
	for stage, want := range cases {
		if got := Percentage(stage); got != want {
			t.Fatalf("%s: expected %d, got %d", stage, want, got)
		}
	}
}

func TestMemberStatusFor(t *testing.T) {
	t.Parallel()

	cases := map[appointment.Type]MemberStatus{
		appointment.TypeFirstFitting:       MemberAwaitingMeasurements,
		appointment.TypeAlterationsFitting: MemberBeingAltered,
		appointment.TypePickup:             MemberReadyForPickup,
	}
	for typ, want := range cases {
		got, ok := MemberStatusFor(typ)
		if !ok || got != want {
			t.Fatalf("%s: expected %s, got %s", typ, want, got)
		}
	}
	if _, ok := MemberStatusFor("consultation"); ok {
		t.Fatal("unknown type must not map to a member status")
	}
}
