package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/domain/timeline"
	"github.com/cpg716/SuitSync-sub003/internal/httperr"
	"github.com/cpg716/SuitSync-sub003/internal/httpresp"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/progress"
)

type progressReader interface {
	GetProgress(ctx context.Context, q progress.Query) (*progress.Progress, error)
	GetPartyProgress(ctx context.Context, partyID uint) (*progress.PartySummary, error)
}

type ProgressHandler struct {
	progress progressReader
	loc      *time.Location
}

func NewProgressHandler(p progressReader, loc *time.Location) *ProgressHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressHandler{progress: p, loc: loc}
}

// Get answers GET /progress?customer_id=|member_id=.
func (h *ProgressHandler) Get(c *gin.Context) {
	customerID, err := parseOptionalID(c.Query("customer_id"))
	if err != nil {
		httperr.BadRequest(c, "invalid_customer_id", "Invalid customer_id.")
		return
	}
	memberID, err := parseOptionalID(c.Query("member_id"))
	if err != nil {
		httperr.BadRequest(c, "invalid_member_id", "Invalid member_id.")
		return
	}

	p, err := h.progress.GetProgress(c.Request.Context(), progress.Query{
		CustomerID:    customerID,
		PartyMemberID: memberID,
	})
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, p)
}

func (h *ProgressHandler) Party(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.progress.GetPartyProgress(c.Request.Context(), id)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, summary)
}

// ======================================================
// TIMELINE
// ======================================================

func (h *ProgressHandler) Timeline(c *gin.Context) {
	httpresp.OK(c, gin.H{
		"stages":          timeline.Stages(),
		"workflow_stages": timeline.WorkflowStages(),
	})
}

// Suggest answers GET /timeline/suggest?event_date=YYYY-MM-DD&type=.
func (h *ProgressHandler) Suggest(c *gin.Context) {
	eventDate, err := parseDateInShop(h.loc, c.Query("event_date"))
	if err != nil {
		httperr.BadRequest(c, "invalid_event_date", "Invalid event_date.")
		return
	}

	typ := domain.Type(c.Query("type"))
	suggested := timeline.SuggestNextAppointmentDate(eventDate, typ, h.loc)
	if suggested == nil {
		httperr.BadRequest(c, "unknown_type", "Unknown appointment type.")
		return
	}

	httpresp.OK(c, gin.H{
		"type":           typ,
		"event_date":     eventDate.Format("2006-01-02"),
		"suggested_date": suggested,
	})
}
