// Package progress derives where a customer or party member stands in the
// fitting timeline from their appointment history.
package progress

import (
	"context"
	"log/slog"
	"time"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/domain/timeline"
	"github.com/cpg716/SuitSync-sub003/internal/logging"
	"github.com/cpg716/SuitSync-sub003/internal/models"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

// Query selects whose progress to compute. Exactly one field must be set.
type Query struct {
	CustomerID    *uint
	PartyMemberID *uint
}

type Progress struct {
	CurrentStage       int                    `json:"current_stage"`
	CompletedStages    []domain.Type          `json:"completed_stages"`
	NextStage          *domain.Type           `json:"next_stage,omitempty"`
	IsComplete         bool                   `json:"is_complete"`
	WorkflowStatus     timeline.WorkflowStage `json:"workflow_status"`
	ProgressPercentage int                    `json:"progress_percentage"`
	Appointments       []models.Appointment   `json:"appointments"`
}

type MemberProgress struct {
	MemberID uint      `json:"member_id"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	Progress *Progress `json:"progress"`
}

type PartySummary struct {
	PartyID           uint             `json:"party_id"`
	PartyName         string           `json:"party_name"`
	EventDate         *time.Time       `json:"event_date"`
	TotalMembers      int              `json:"total_members"`
	CompletedMembers  int              `json:"completed_members"`
	InProgressMembers int              `json:"in_progress_members"`
	Members           []MemberProgress `json:"members"`
}

// ======================================================
// USE CASE
// ======================================================

type Deriver struct {
	repo   domain.Repository
	logger *slog.Logger
}

func NewDeriver(repo domain.Repository, logger *slog.Logger) *Deriver {
	return &Deriver{
		repo:   repo,
		logger: logging.Default(logger),
	}
}

func (d *Deriver) GetProgress(ctx context.Context, q Query) (*Progress, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	var (
		apps []models.Appointment
		err  error
	)
	if q.CustomerID != nil {
		apps, err = d.repo.ListAppointmentsForCustomer(ctx, *q.CustomerID)
	} else {
		apps, err = d.repo.ListAppointmentsForMember(ctx, *q.PartyMemberID)
	}
	if err != nil {
		return nil, err
	}

	return Derive(apps), nil
}

func (d *Deriver) GetPartyProgress(ctx context.Context, partyID uint) (*PartySummary, error) {
	party, err := d.repo.GetPartyWithMembers(ctx, partyID)
	if err != nil {
		return nil, err
	}

	summary := &PartySummary{
		PartyID:      party.ID,
		PartyName:    party.Name,
		EventDate:    party.EventDate,
		TotalMembers: len(party.Members),
		Members:      make([]MemberProgress, 0, len(party.Members)),
	}

	for _, m := range party.Members {
		memberID := m.ID
		p, err := d.GetProgress(ctx, Query{PartyMemberID: &memberID})
		if err != nil {
			return nil, err
		}

		switch {
		case p.IsComplete:
			summary.CompletedMembers++
		case len(p.CompletedStages) > 0:
			summary.InProgressMembers++
		}

		summary.Members = append(summary.Members, MemberProgress{
			MemberID: m.ID,
			Role:     m.Role,
			Status:   m.Status,
			Progress: p,
		})
	}

	logging.Service(ctx, d.logger, "progress", "party").Debug(
		"party progress computed",
		"party_id", partyID,
		"members", summary.TotalMembers,
		"completed", summary.CompletedMembers,
	)

	return summary, nil
}

func (q Query) validate() error {
	vErr := &domain.ValidationError{}
	switch {
	case q.CustomerID == nil && q.PartyMemberID == nil:
		vErr.Add("query", "customer_id or member_id is required")
	case q.CustomerID != nil && q.PartyMemberID != nil:
		vErr.Add("query", "customer_id and member_id are mutually exclusive")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// ======================================================
// DERIVATION
// ======================================================

// Derive computes a snapshot from appointments ordered by date_time ascending.
// When a type appears more than once the last one in that order wins, i.e.
// the latest by date_time (ties broken by the higher id).
func Derive(apps []models.Appointment) *Progress {
	first := domain.TypeFirstFitting

	if len(apps) == 0 {
		return &Progress{
			CurrentStage:       1,
			CompletedStages:    []domain.Type{},
			NextStage:          &first,
			WorkflowStatus:     timeline.WorkflowSelected,
			ProgressPercentage: 0,
			Appointments:       []models.Appointment{},
		}
	}

	byType := make(map[domain.Type]models.Appointment, len(apps))
	for _, ap := range apps {
		byType[domain.Type(ap.Type)] = ap
	}

	completed := func(t domain.Type) bool {
		ap, ok := byType[t]
		return ok && domain.Status(ap.Status) == domain.StatusCompleted
	}

	out := &Progress{
		CompletedStages: []domain.Type{},
		Appointments:    apps,
	}

	for _, stage := range timeline.Stages() {
		if completed(stage.Type) {
			out.CompletedStages = append(out.CompletedStages, stage.Type)
		} else if out.NextStage == nil {
			next := stage.Type
			out.NextStage = &next
		}
	}

	switch {
	case completed(domain.TypePickup), completed(domain.TypeAlterationsFitting):
		out.CurrentStage = 3
	case completed(domain.TypeFirstFitting):
		out.CurrentStage = 2
	default:
		out.CurrentStage = 1
	}

	// later rules override earlier ones
	status := timeline.WorkflowSelected
	if completed(domain.TypeFirstFitting) {
		// Measured, and ordering follows automatically
		status = timeline.WorkflowOrdered
	}
	if completed(domain.TypeAlterationsFitting) {
		status = timeline.WorkflowAltered
	}
	if pickup, ok := byType[domain.TypePickup]; ok && domain.Status(pickup.Status) == domain.StatusScheduled {
		status = timeline.WorkflowReady
	}
	if completed(domain.TypePickup) {
		status = timeline.WorkflowPickedUp
	}
	out.WorkflowStatus = status

	out.IsComplete = completed(domain.TypePickup)
	if out.IsComplete {
		out.NextStage = nil
	}

	if len(out.CompletedStages) > 0 {
		out.ProgressPercentage = timeline.Percentage(status)
	}

	return out
}

// ======================================================
// SUGGESTION
// ======================================================

// SuggestNextAppointmentDate is a planning aid; it never blocks booking.
func SuggestNextAppointmentDate(eventDate time.Time, appointmentType string, loc *time.Location) *time.Time {
	return timeline.SuggestNextAppointmentDate(eventDate, domain.Type(appointmentType), loc)
}
