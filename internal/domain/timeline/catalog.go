// Package timeline holds the static fitting timeline and the two status
// vocabularies used around it.
package timeline

import (
	"math"

	"github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
)

// Stage is one step of the fitting timeline.
type Stage struct {
	Stage                  int              `json:"stage"`
	Type                   appointment.Type `json:"type"`
	Name                   string           `json:"name"`
	Description            string           `json:"description"`
	DefaultDuration        int              `json:"default_duration"`
	SuggestedDaysFromEvent int              `json:"suggested_days_from_event"`
	AutoCreateNext         bool             `json:"auto_create_next"`
}

var stages = []Stage{
	{
		Stage:                  1,
		Type:                   appointment.TypeFirstFitting,
		Name:                   "First Fitting",
		Description:            "Initial fitting and measurements",
		DefaultDuration:        90,
		SuggestedDaysFromEvent: -90,
		AutoCreateNext:         true,
	},
	{
		Stage:                  2,
		Type:                   appointment.TypeAlterationsFitting,
		Name:                   "Alterations Fitting",
		Description:            "Try on the altered garments and confirm final adjustments",
		DefaultDuration:        60,
		SuggestedDaysFromEvent: -42,
		AutoCreateNext:         true,
	},
	{
		Stage:                  3,
		Type:                   appointment.TypePickup,
		Name:                   "Pickup",
		Description:            "Final check and garment pickup",
		DefaultDuration:        30,
		SuggestedDaysFromEvent: -7,
		AutoCreateNext:         false,
	},
}

// Stages returns the timeline in order. The slice is a copy.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// StageFor looks up the catalog entry for an appointment type.
func StageFor(t appointment.Type) (Stage, bool) {
	for _, s := range stages {
		if s.Type == t {
			return s, true
		}
	}
	return Stage{}, false
}

// Next returns the stage that follows t, if any.
func Next(t appointment.Type) (Stage, bool) {
	for i, s := range stages {
		if s.Type == t && i+1 < len(stages) {
			return stages[i+1], true
		}
	}
	return Stage{}, false
}

// ===============================
// Workflow Stage (display vocabulary)
// ===============================

type WorkflowStage string

const (
	WorkflowSelected WorkflowStage = "Selected"
	WorkflowMeasured WorkflowStage = "Measured"
	WorkflowOrdered  WorkflowStage = "Ordered"
	WorkflowFitted   WorkflowStage = "Fitted"
	WorkflowAltered  WorkflowStage = "Altered"
	WorkflowReady    WorkflowStage = "Ready"
	WorkflowPickedUp WorkflowStage = "PickedUp"
)

type WorkflowStageInfo struct {
	Stage       WorkflowStage `json:"stage"`
	Description string        `json:"description"`
}

var workflowStages = []WorkflowStageInfo{
	{WorkflowSelected, "Garments selected for the event"},
	{WorkflowMeasured, "Measurements taken"},
	{WorkflowOrdered, "Garments ordered"},
	{WorkflowFitted, "Garments fitted"},
	{WorkflowAltered, "Alterations complete"},
	{WorkflowReady, "Ready for pickup"},
	{WorkflowPickedUp, "Picked up by the customer"},
}

func WorkflowStages() []WorkflowStageInfo {
	out := make([]WorkflowStageInfo, len(workflowStages))
	copy(out, workflowStages)
	return out
}

// WorkflowIndex returns the position of s in the workflow catalog, or -1.
func WorkflowIndex(s WorkflowStage) int {
	for i, w := range workflowStages {
		if w.Stage == s {
			return i
		}
	}
	return -1
}

// Percentage is (index+1)/7*100, rounded, for known stages and 0 otherwise.
func Percentage(s WorkflowStage) int {
	idx := WorkflowIndex(s)
	if idx < 0 {
		return 0
	}
	return int(math.Round(float64(idx+1) / float64(len(workflowStages)) * 100))
}

// ===============================
// Member Status (trigger vocabulary)
// ===============================

// MemberStatus is what the workflow trigger writes onto a party member.
// It is deliberately a separate vocabulary from WorkflowStage.
type MemberStatus string

const (
	MemberAwaitingMeasurements MemberStatus = "awaiting_measurements"
	MemberBeingAltered         MemberStatus = "being_altered"
	MemberReadyForPickup       MemberStatus = "ready_for_pickup"
)

// MemberStatusFor maps a completed appointment type to the member status it produces.
func MemberStatusFor(t appointment.Type) (MemberStatus, bool) {
	switch t {
	case appointment.TypeFirstFitting:
		return MemberAwaitingMeasurements, true
	case appointment.TypeAlterationsFitting:
		return MemberBeingAltered, true
	case appointment.TypePickup:
		return MemberReadyForPickup, true
	}
	return "", false
}
