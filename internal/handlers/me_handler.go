package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/httperr"
	"github.com/cpg716/SuitSync-sub003/internal/middleware"
	"github.com/cpg716/SuitSync-sub003/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

// GetMe returns the staff record behind the bearer token together with the
// number of open appointments assigned to them.
func (h *MeHandler) GetMe(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == nil {
		httperr.Unauthorized(c, "user_not_in_context", "Not authenticated.")
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var user models.User
	if err := db.First(&user, *userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "user_not_found", "User not found.")
			return
		}
		httperr.Internal(c, "user_lookup_failed", "Could not load user.")
		return
	}

	var open int64
	if err := db.Model(&models.Appointment{}).
		Where("tailor_id = ? AND status IN ?", user.ID, []string{
			string(domain.StatusScheduled),
			string(domain.StatusConfirmed),
		}).
		Count(&open).Error; err != nil {
		httperr.Internal(c, "appointment_count_failed", "Could not count appointments.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"phone": user.Phone,
			"role":  user.Role,
		},
		"open_appointments": open,
	})
}
