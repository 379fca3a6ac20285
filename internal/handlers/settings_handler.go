package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cpg716/SuitSync-sub003/internal/audit"
	"github.com/cpg716/SuitSync-sub003/internal/httperr"
	"github.com/cpg716/SuitSync-sub003/internal/httpresp"
	"github.com/cpg716/SuitSync-sub003/internal/middleware"
	"github.com/cpg716/SuitSync-sub003/internal/models"
	"github.com/cpg716/SuitSync-sub003/internal/timezone"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/notification"
)

type settingsStore interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, s *models.Settings) error
}

type SettingsHandler struct {
	store settingsStore
	audit *audit.Dispatcher
}

func NewSettingsHandler(store settingsStore, audit *audit.Dispatcher) *SettingsHandler {
	return &SettingsHandler{store: store, audit: audit}
}

// UpdateSettingsRequest is a partial update: nil fields are left alone and
// an empty template restores the built-in default.
type UpdateSettingsRequest struct {
	ReminderIntervals  *string `json:"reminder_intervals"`
	EarlyMorningCutoff *string `json:"early_morning_cutoff"`

	EmailSubjectTemplate *string `json:"email_subject_template"`
	EmailBodyTemplate    *string `json:"email_body_template"`
	SMSBodyTemplate      *string `json:"sms_body_template"`

	PickupEmailSubjectTemplate *string `json:"pickup_email_subject_template"`
	PickupEmailBodyTemplate    *string `json:"pickup_email_body_template"`
	PickupSMSBodyTemplate      *string `json:"pickup_sms_body_template"`
}

func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	httpresp.OK(c, s)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	s, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	if req.ReminderIntervals != nil {
		if len(notification.ParseIntervals(*req.ReminderIntervals)) == 0 {
			httperr.BadRequest(c, "invalid_reminder_intervals", "At least one positive interval in hours is required.")
			return
		}
		s.ReminderIntervals = strings.TrimSpace(*req.ReminderIntervals)
	}
	if req.EarlyMorningCutoff != nil {
		if _, err := timezone.ParseClock(*req.EarlyMorningCutoff); err != nil {
			httperr.BadRequest(c, "invalid_early_morning_cutoff", "Cutoff must be HH:MM.")
			return
		}
		s.EarlyMorningCutoff = strings.TrimSpace(*req.EarlyMorningCutoff)
	}

	setIf(&s.EmailSubjectTemplate, req.EmailSubjectTemplate)
	setIf(&s.EmailBodyTemplate, req.EmailBodyTemplate)
	setIf(&s.SMSBodyTemplate, req.SMSBodyTemplate)
	setIf(&s.PickupEmailSubjectTemplate, req.PickupEmailSubjectTemplate)
	setIf(&s.PickupEmailBodyTemplate, req.PickupEmailBodyTemplate)
	setIf(&s.PickupSMSBodyTemplate, req.PickupSMSBodyTemplate)

	if err := h.store.SaveSettings(c.Request.Context(), s); err != nil {
		httperr.FromDomain(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   middleware.UserID(c),
		Action:   "settings_updated",
		Entity:   "settings",
		EntityID: &s.ID,
	})

	httpresp.OK(c, s)
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
