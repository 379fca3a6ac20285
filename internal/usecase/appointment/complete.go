package appointment

import (
	"context"

	"github.com/cpg716/SuitSync-sub003/internal/audit"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/workflow"
)

// Trigger runs the completion workflow.
type Trigger interface {
	ExecuteWorkflowTriggers(ctx context.Context, appointmentID uint) (*workflow.TriggerResult, error)
}

type CompleteAppointment struct {
	engine Trigger
	audit  *audit.Dispatcher
}

func NewCompleteAppointment(
	engine Trigger,
	audit *audit.Dispatcher,
) *CompleteAppointment {
	return &CompleteAppointment{
		engine: engine,
		audit:  audit,
	}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	userID *uint,
	appointmentID uint,
) (*workflow.TriggerResult, error) {

	res, err := uc.engine.ExecuteWorkflowTriggers(ctx, appointmentID)
	if err != nil {
		return res, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   "appointment_completed",
		Entity:   "appointment",
		EntityID: &appointmentID,
		Metadata: map[string]any{
			"actions":        res.Actions,
			"errors":         res.Errors,
			"alteration_job": res.AlterationJobID,
			"requires_next":  res.RequiresNextScheduling,
		},
	})

	return res, nil
}
