package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/middleware"
	"github.com/BruksfildServices01/booking-engine/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

// GetMe echoes the token identity with the business it is scoped to.
func (h *MeHandler) GetMe(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)
	role := c.GetString(middleware.ContextUserRole)

	var business models.Business
	if err := h.db.WithContext(c.Request.Context()).First(&business, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "business_not_found", "Business not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_business", "Could not load business.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":          userID,
			"role":        role,
			"business_id": businessID,
		},
		"business": gin.H{
			"id":       business.ID,
			"name":     business.Name,
			"slug":     business.Slug,
			"timezone": business.Timezone,
			"phone":    business.Phone,
			"address":  business.Address,
		},
	})
}
