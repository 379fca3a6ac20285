package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/httperr"
	"github.com/cpg716/SuitSync-sub003/internal/httpresp"
	"github.com/cpg716/SuitSync-sub003/internal/middleware"
	"github.com/cpg716/SuitSync-sub003/internal/models"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/workflow"
)

// ======================================================
// DEPENDENCIES
// ======================================================

type appointmentCompleter interface {
	Execute(ctx context.Context, userID *uint, appointmentID uint) (*workflow.TriggerResult, error)
}

type appointmentCanceller interface {
	Execute(ctx context.Context, userID *uint, appointmentID uint) (*models.Appointment, error)
}

type followUpScheduler interface {
	ScheduleNextAppointment(ctx context.Context, in workflow.NextAppointmentInput) (*workflow.TriggerResult, error)
}

type reminderService interface {
	ScheduleAppointmentReminders(ctx context.Context, appointmentID uint) error
	SchedulePickupReadyNotification(ctx context.Context, appointmentID uint, scheduleFor *time.Time) error
}

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	complete  appointmentCompleter
	cancel    appointmentCanceller
	followUp  followUpScheduler
	reminders reminderService
	loc       *time.Location
}

func NewAppointmentHandler(
	complete appointmentCompleter,
	cancel appointmentCanceller,
	followUp followUpScheduler,
	reminders reminderService,
	loc *time.Location,
) *AppointmentHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentHandler{
		complete:  complete,
		cancel:    cancel,
		followUp:  followUp,
		reminders: reminders,
		loc:       loc,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type ScheduleNextRequest struct {
	Type            string `json:"type" binding:"required"`
	DateTime        string `json:"date_time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
	TailorID        *uint  `json:"tailor_id"`
	Notes           string `json:"notes"`
	ParentID        *uint  `json:"parent_id"`
}

type PickupReadyRequest struct {
	ScheduleFor string `json:"schedule_for"`
}

// ======================================================
// COMPLETE
// ======================================================

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res, err := h.complete.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeTriggerFailure(c, res, err)
		return
	}

	httpresp.OK(c, res)
}

// writeTriggerFailure keeps the partial result in the body when the
// workflow got past lookup.
func writeTriggerFailure(c *gin.Context, res *workflow.TriggerResult, err error) {
	var vErr *domain.ValidationError
	if res == nil || errors.Is(err, domain.ErrNotFound) || errors.As(err, &vErr) {
		httperr.FromDomain(c, err)
		return
	}
	c.JSON(http.StatusInternalServerError, res)
}

// ======================================================
// CANCEL
// ======================================================

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ap, err := h.cancel.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// SCHEDULE NEXT
// ======================================================

func (h *AppointmentHandler) ScheduleNext(c *gin.Context) {
	partyID, ok := parseID(c, "id")
	if !ok {
		return
	}
	memberID, ok := parseID(c, "memberId")
	if !ok {
		return
	}

	var req ScheduleNextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	at, err := parseDateTimeInShop(h.loc, req.DateTime)
	if err != nil {
		httperr.BadRequest(c, "invalid_date_time", "Invalid date_time.")
		return
	}

	res, err := h.followUp.ScheduleNextAppointment(c.Request.Context(), workflow.NextAppointmentInput{
		PartyID:         partyID,
		MemberID:        memberID,
		Type:            req.Type,
		DateTime:        at,
		DurationMinutes: req.DurationMinutes,
		TailorID:        req.TailorID,
		Notes:           req.Notes,
		ParentID:        req.ParentID,
	})
	if err != nil {
		writeTriggerFailure(c, res, err)
		return
	}

	httpresp.Created(c, res)
}

// ======================================================
// REMINDERS
// ======================================================

func (h *AppointmentHandler) ScheduleReminders(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.reminders.ScheduleAppointmentReminders(c.Request.Context(), id); err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, gin.H{"appointment_id": id, "scheduled": true})
}

func (h *AppointmentHandler) PickupReady(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req PickupReadyRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, "invalid_request", "Invalid request body.")
			return
		}
	}

	var at *time.Time
	if req.ScheduleFor != "" {
		t, err := parseDateTimeInShop(h.loc, req.ScheduleFor)
		if err != nil {
			httperr.BadRequest(c, "invalid_schedule_for", "Invalid schedule_for.")
			return
		}
		at = &t
	}

	if err := h.reminders.SchedulePickupReadyNotification(c.Request.Context(), id, at); err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, gin.H{"appointment_id": id, "scheduled": true})
}
