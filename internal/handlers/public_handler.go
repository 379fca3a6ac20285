package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cpg716/SuitSync-sub003/internal/dto"
	"github.com/cpg716/SuitSync-sub003/internal/httperr"
	"github.com/cpg716/SuitSync-sub003/internal/httpresp"
	"github.com/cpg716/SuitSync-sub003/internal/models"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/notification"
)

type actionTokenParser interface {
	Parse(token, action string) (*notification.ActionClaims, error)
}

type appointmentReader interface {
	GetAppointmentWithOwners(ctx context.Context, id uint) (*models.Appointment, error)
}

// PublicHandler serves the links embedded in reminder messages. The signed
// token is the only credential.
type PublicHandler struct {
	tokens       actionTokenParser
	cancel       appointmentCanceller
	appointments appointmentReader
}

func NewPublicHandler(
	tokens actionTokenParser,
	cancel appointmentCanceller,
	appointments appointmentReader,
) *PublicHandler {
	return &PublicHandler{
		tokens:       tokens,
		cancel:       cancel,
		appointments: appointments,
	}
}

// ConfirmCancel answers the link opened from a reminder. It only shows what
// would be cancelled; mail scanners and link previews follow GET links.
func (h *PublicHandler) ConfirmCancel(c *gin.Context) {
	claims, ok := h.verify(c, notification.ActionCancel)
	if !ok {
		return
	}

	ap, err := h.appointments.GetAppointmentWithOwners(c.Request.Context(), claims.AppointmentID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, gin.H{
		"appointment": dto.AppointmentFromModel(*ap),
		"action":      notification.ActionCancel,
		"confirm":     http.MethodPost,
	})
}

// Cancel performs the cancellation confirmed by the customer.
func (h *PublicHandler) Cancel(c *gin.Context) {
	claims, ok := h.verify(c, notification.ActionCancel)
	if !ok {
		return
	}

	ap, err := h.cancel.Execute(c.Request.Context(), nil, claims.AppointmentID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, gin.H{
		"appointment_id": ap.ID,
		"status":         ap.Status,
	})
}

// Reschedule returns the appointment summary; the new slot is booked by
// staff or the booking site.
func (h *PublicHandler) Reschedule(c *gin.Context) {
	claims, ok := h.verify(c, notification.ActionReschedule)
	if !ok {
		return
	}

	ap, err := h.appointments.GetAppointmentWithOwners(c.Request.Context(), claims.AppointmentID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, dto.AppointmentFromModel(*ap))
}

func (h *PublicHandler) verify(c *gin.Context, action string) (*notification.ActionClaims, bool) {
	token := c.Query("token")
	if token == "" {
		token = c.PostForm("token")
	}
	if token == "" {
		httperr.BadRequest(c, "missing_token", "Missing token.")
		return nil, false
	}
	claims, err := h.tokens.Parse(token, action)
	if err != nil {
		httperr.FromDomain(c, httperr.ErrBusinessStatus(http.StatusUnauthorized, "invalid_token", "Link is invalid or expired."))
		return nil, false
	}
	return claims, true
}
