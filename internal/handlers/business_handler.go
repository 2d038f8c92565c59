package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/middleware"
	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/timezone"
)

type BusinessHandler struct {
	db *gorm.DB
}

func NewBusinessHandler(db *gorm.DB) *BusinessHandler {
	return &BusinessHandler{db: db}
}

type UpdateBusinessConfigRequest struct {
	Name                *string `json:"name"`
	Timezone            *string `json:"timezone"`
	SlotIntervalMinutes *int    `json:"slot_interval_minutes"`
	MinAdvanceMinutes   *int    `json:"min_advance_minutes"`
	Currency            *string `json:"currency"`
	Phone               *string `json:"phone"`
	Address             *string `json:"address"`
}

func (h *BusinessHandler) load(c *gin.Context) (*models.Business, bool) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var business models.Business
	if err := h.db.WithContext(c.Request.Context()).First(&business, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "business_not_found", "Business not found.")
			return nil, false
		}
		httperr.Internal(c, "failed_to_get_business", "Could not load business.")
		return nil, false
	}
	return &business, true
}

func (h *BusinessHandler) GetMeBusiness(c *gin.Context) {
	business, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, business)
}

func (h *BusinessHandler) UpdateMeBusiness(c *gin.Context) {
	business, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateBusinessConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httperr.BadRequest(c, "invalid_name", "Name must not be empty.")
			return
		}
		business.Name = name
	}

	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			httperr.BadRequest(c, "invalid_timezone", "Timezone must be an IANA zone name.")
			return
		}
		business.Timezone = *req.Timezone
	}

	if req.SlotIntervalMinutes != nil {
		if *req.SlotIntervalMinutes < 1 || *req.SlotIntervalMinutes > 240 {
			httperr.BadRequest(c, "invalid_slot_interval", "Slot interval must be between 1 and 240 minutes.")
			return
		}
		business.SlotIntervalMinutes = *req.SlotIntervalMinutes
	}

	if req.MinAdvanceMinutes != nil {
		if *req.MinAdvanceMinutes < 0 {
			httperr.BadRequest(c, "invalid_min_advance", "Minimum advance must be zero or positive (minutes).")
			return
		}
		business.MinAdvanceMinutes = *req.MinAdvanceMinutes
	}

	if req.Currency != nil {
		cur := strings.ToLower(strings.TrimSpace(*req.Currency))
		if len(cur) != 3 {
			httperr.BadRequest(c, "invalid_currency", "Currency must be an ISO 4217 code.")
			return
		}
		business.Currency = cur
	}

	if req.Phone != nil {
		business.Phone = *req.Phone
	}
	if req.Address != nil {
		business.Address = *req.Address
	}

	if err := h.db.WithContext(c.Request.Context()).Save(business).Error; err != nil {
		httperr.Internal(c, "failed_to_update_business", "Could not save business settings.")
		return
	}

	c.JSON(http.StatusOK, business)
}
