// Package workflow reacts to completed appointments: it advances the party
// member status, signals the follow-up appointment, opens the alteration job
// and refreshes reminders.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/domain/timeline"
	"github.com/cpg716/SuitSync-sub003/internal/logging"
	"github.com/cpg716/SuitSync-sub003/internal/models"
)

const alterationJobNotStarted = "NOT_STARTED"

// ======================================================
// RESULT
// ======================================================

type SuggestedAppointment struct {
	Type            domain.Type `json:"type"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	SuggestedDate   *time.Time  `json:"suggested_date"`
	DefaultDuration int         `json:"default_duration"`
}

// TriggerResult reports what a trigger did. Success can be true while Errors
// still lists best-effort steps that failed.
type TriggerResult struct {
	Success                  bool                  `json:"success"`
	Actions                  []string              `json:"actions"`
	Errors                   []string              `json:"errors"`
	NextAppointmentID        *uint                 `json:"next_appointment_id,omitempty"`
	AlterationJobID          *uint                 `json:"alteration_job_id,omitempty"`
	RequiresNextScheduling   bool                  `json:"requires_next_scheduling"`
	SuggestedNextAppointment *SuggestedAppointment `json:"suggested_next_appointment,omitempty"`
}

func newResult() *TriggerResult {
	return &TriggerResult{Actions: []string{}, Errors: []string{}}
}

func (r *TriggerResult) action(format string, args ...any) {
	r.Actions = append(r.Actions, fmt.Sprintf(format, args...))
}

func (r *TriggerResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ======================================================
// COLLABORATORS
// ======================================================

// ReminderScheduler recomputes the reminders of one appointment.
type ReminderScheduler interface {
	ScheduleAppointmentReminders(ctx context.Context, appointmentID uint) error
}

type Options struct {
	Parts    PartsScheduler
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
	// JobNumber generates alteration job numbers; defaults to ALT-<uuid prefix>.
	JobNumber func() string
}

// ======================================================
// ENGINE
// ======================================================

type Engine struct {
	repo      domain.Repository
	reminders ReminderScheduler
	parts     PartsScheduler
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
	jobNumber func() string
}

func NewEngine(repo domain.Repository, reminders ReminderScheduler, opts Options) *Engine {
	e := &Engine{
		repo:      repo,
		reminders: reminders,
		parts:     opts.Parts,
		loc:       opts.Location,
		now:       opts.Now,
		logger:    logging.Default(opts.Logger),
		jobNumber: opts.JobNumber,
	}
	if e.parts == nil {
		e.parts = NewLogPartsScheduler(e.logger)
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.jobNumber == nil {
		e.jobNumber = func() string {
			return "ALT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
		}
	}
	return e
}

// ExecuteWorkflowTriggers runs the completion workflow for an appointment.
// The returned error is set only for structural failures, in which case the
// result has Success=false.
func (e *Engine) ExecuteWorkflowTriggers(ctx context.Context, appointmentID uint) (*TriggerResult, error) {
	lg := logging.Service(ctx, e.logger, "workflow", "execute_triggers", "appointment_id", appointmentID)
	res := newResult()

	ap, err := e.completeCore(ctx, appointmentID, res)
	if err != nil {
		res.fail("%v", err)
		lg.Warn("workflow trigger aborted", "error", err, "kind", domain.ErrorKind(err))
		return res, err
	}

	if err := e.runEffects(ctx, ap, res); err != nil {
		res.fail("%v", err)
		lg.Error("workflow trigger failed", "error", err)
		return res, err
	}

	res.Success = true
	lg.Info("workflow triggers executed",
		"type", ap.Type,
		"actions", len(res.Actions),
		"errors", len(res.Errors),
		"requires_next", res.RequiresNextScheduling,
	)
	return res, nil
}

// completeCore is the transactional phase: mark the appointment completed and
// write the member status.
func (e *Engine) completeCore(ctx context.Context, appointmentID uint, res *TriggerResult) (*models.Appointment, error) {
	var out *models.Appointment

	err := e.repo.WithinTx(ctx, func(tx domain.Repository) error {
		ap, err := tx.GetAppointmentWithOwners(ctx, appointmentID)
		if err != nil {
			return err
		}

		if domain.Complete(ap, e.now()) {
			if err := tx.UpdateAppointment(ctx, ap); err != nil {
				return fmt.Errorf("complete appointment: %w", err)
			}
			res.action("Appointment %d marked as completed", ap.ID)
		} else {
			res.action("Appointment %d was already completed", ap.ID)
		}

		if domain.BelongsToMember(ap) {
			if status, ok := timeline.MemberStatusFor(domain.Type(ap.Type)); ok {
				if err := tx.UpdateMemberStatus(ctx, *ap.MemberID, string(status)); err != nil {
					return fmt.Errorf("update member status: %w", err)
				}
				if ap.Member != nil {
					ap.Member.Status = string(status)
				}
				res.action("Party member %d status set to %s", *ap.MemberID, status)
			}
		}

		out = ap
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// runEffects is the non-transactional phase. Only a failure to create the
// alteration job is returned; everything else is recorded on res.
func (e *Engine) runEffects(ctx context.Context, ap *models.Appointment, res *TriggerResult) error {
	typ := domain.Type(ap.Type)

	if next, ok := timeline.Next(typ); ok {
		res.RequiresNextScheduling = true
		res.SuggestedNextAppointment = e.suggest(ap, next)
		res.action("Next appointment needed: %s", next.Name)
	}

	if domain.BelongsToMember(ap) {
		switch typ {
		case domain.TypeFirstFitting:
			res.action("Measurements should be recorded for party member %d", *ap.MemberID)
		case domain.TypeAlterationsFitting:
			if err := e.ensureAlterationJob(ctx, ap, res); err != nil {
				return err
			}
		case domain.TypePickup:
			res.action("Workflow complete for party member %d", *ap.MemberID)
		}
	}

	e.refreshReminders(ctx, ap.ID, res)
	return nil
}

func (e *Engine) suggest(ap *models.Appointment, next timeline.Stage) *SuggestedAppointment {
	s := &SuggestedAppointment{
		Type:            next.Type,
		Name:            next.Name,
		Description:     next.Description,
		DefaultDuration: next.DefaultDuration,
	}
	if ev := eventDate(ap); ev != nil {
		d := timeline.SuggestFollowUpDate(*ev, next, e.loc)
		s.SuggestedDate = &d
	}
	return s
}

func eventDate(ap *models.Appointment) *time.Time {
	if ap.Party != nil {
		return ap.Party.EventDate
	}
	return nil
}

func (e *Engine) ensureAlterationJob(ctx context.Context, ap *models.Appointment, res *TriggerResult) error {
	memberID := *ap.MemberID

	existing, err := e.repo.FindAlterationJobByMember(ctx, memberID)
	switch {
	case err == nil:
		res.AlterationJobID = &existing.ID
		res.action("Alteration job %s already exists", existing.JobNumber)
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("find alteration job: %w", err)
	}

	job := &models.AlterationJob{
		JobNumber:     e.jobNumber(),
		PartyMemberID: &memberID,
		PartyID:       ap.PartyID,
		AppointmentID: &ap.ID,
		Status:        alterationJobNotStarted,
	}
	if ev := eventDate(ap); ev != nil {
		due := ev.AddDate(0, 0, -7)
		job.DueDate = &due
	}

	if err := e.repo.CreateAlterationJob(ctx, job); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("create alteration job: %w", err)
		}
		// lost a race with a concurrent trigger for the same member
		existing, findErr := e.repo.FindAlterationJobByMember(ctx, memberID)
		if findErr != nil {
			return fmt.Errorf("create alteration job: %w", err)
		}
		res.AlterationJobID = &existing.ID
		res.action("Alteration job %s already exists", existing.JobNumber)
		return nil
	}

	res.AlterationJobID = &job.ID
	res.action("Alteration job %s created", job.JobNumber)

	if err := e.parts.ScheduleJobParts(ctx, job.ID, PartsOptions{DueDate: job.DueDate, TailorID: ap.TailorID}); err != nil {
		res.fail("Failed to auto-schedule alteration parts: %v", err)
		logging.Service(ctx, e.logger, "workflow", "schedule_parts", "job_id", job.ID).
			Warn("parts auto-scheduling failed", "error", err)
	} else {
		res.action("Alteration parts queued for scheduling")
	}
	return nil
}

func (e *Engine) refreshReminders(ctx context.Context, appointmentID uint, res *TriggerResult) {
	if e.reminders == nil {
		return
	}
	if err := e.reminders.ScheduleAppointmentReminders(ctx, appointmentID); err != nil {
		res.fail("Failed to schedule reminders: %v", err)
		logging.Service(ctx, e.logger, "workflow", "refresh_reminders", "appointment_id", appointmentID).
			Warn("reminder scheduling failed", "error", err)
		return
	}
	res.action("Reminders refreshed for appointment %d", appointmentID)
}

// ======================================================
// SCHEDULE NEXT
// ======================================================

// NextAppointmentInput is the operator's choice for a follow-up appointment.
type NextAppointmentInput struct {
	PartyID         uint
	MemberID        uint
	Type            string
	DateTime        time.Time
	DurationMinutes int
	TailorID        *uint
	Notes           string
	ParentID        *uint
}

func (in NextAppointmentInput) validate() error {
	vErr := &domain.ValidationError{}
	if strings.TrimSpace(in.Type) == "" {
		vErr.Add("type", "is required")
	}
	if in.DateTime.IsZero() {
		vErr.Add("date_time", "is required")
	}
	if in.DurationMinutes < 0 {
		vErr.Add("duration_minutes", "must be positive")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// ScheduleNextAppointment books the follow-up a completed stage asked for and
// schedules its reminders.
func (e *Engine) ScheduleNextAppointment(ctx context.Context, in NextAppointmentInput) (*TriggerResult, error) {
	lg := logging.Service(ctx, e.logger, "workflow", "schedule_next",
		"party_id", in.PartyID, "member_id", in.MemberID, "type", in.Type)
	res := newResult()

	if err := in.validate(); err != nil {
		res.fail("%v", err)
		return res, err
	}

	member, err := e.repo.GetMember(ctx, in.PartyID, in.MemberID)
	if err != nil {
		res.fail("%v", err)
		return res, err
	}

	ap := &models.Appointment{
		PartyID:         &member.PartyID,
		MemberID:        &member.ID,
		TailorID:        in.TailorID,
		Type:            in.Type,
		Status:          string(domain.InitialStatus()),
		DateTime:        in.DateTime,
		DurationMinutes: in.DurationMinutes,
		ParentID:        in.ParentID,
		Notes:           in.Notes,
	}
	if stage, ok := timeline.StageFor(domain.Type(in.Type)); ok {
		n := stage.Stage
		ap.WorkflowStage = &n
		ap.AutoScheduleNext = stage.AutoCreateNext
		if ap.DurationMinutes == 0 {
			ap.DurationMinutes = stage.DefaultDuration
		}
	}
	if ap.DurationMinutes == 0 {
		ap.DurationMinutes = 60
	}

	if err := domain.ValidateOwnership(ap); err != nil {
		res.fail("%v", err)
		return res, err
	}

	if err := e.repo.CreateAppointment(ctx, ap); err != nil {
		err = fmt.Errorf("create appointment: %w", err)
		res.fail("%v", err)
		lg.Error("follow-up appointment not created", "error", err)
		return res, err
	}

	res.NextAppointmentID = &ap.ID
	res.action("Scheduled %s appointment %d", strings.ReplaceAll(ap.Type, "_", " "), ap.ID)

	e.refreshReminders(ctx, ap.ID, res)

	res.Success = true
	lg.Info("follow-up appointment scheduled", "appointment_id", ap.ID)
	return res, nil
}
