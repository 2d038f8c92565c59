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
	"github.com/BruksfildServices01/booking-engine/internal/validators"
)

type StaffHandler struct {
	db *gorm.DB
}

func NewStaffHandler(db *gorm.DB) *StaffHandler {
	return &StaffHandler{db: db}
}

type CreateStaffRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ServiceIDs []uint `json:"service_ids"`
}

type AssignServicesRequest struct {
	ServiceIDs []uint `json:"service_ids" binding:"required"`
}

// ======================================================
// LIST STAFF
// ======================================================
func (h *StaffHandler) List(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.WithContext(c.Request.Context()).
		Preload("Services").
		Where("business_id = ?", businessID)

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var staff []models.Staff
	if err := q.Order("name ASC").Find(&staff).Error; err != nil {
		httperr.Internal(c, "failed_to_list_staff", "Could not list staff.")
		return
	}

	c.JSON(http.StatusOK, staff)
}

// ======================================================
// CREATE
// ======================================================
func (h *StaffHandler) Create(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	if req.Email != "" && !validators.IsEmailSyntaxValid(req.Email) {
		httperr.BadRequest(c, "invalid_email", "Invalid email.")
		return
	}

	services, ok := h.ownServices(c, businessID, req.ServiceIDs)
	if !ok {
		return
	}

	staff := models.Staff{
		BusinessID: businessID,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Active:     true,
		Services:   services,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&staff).Error; err != nil {
		httperr.Internal(c, "failed_to_create_staff", "Could not create staff member.")
		return
	}

	c.JSON(http.StatusCreated, staff)
}

// ======================================================
// SERVICES PERFORMED
// ======================================================
func (h *StaffHandler) AssignServices(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	staffID, ok := uintParam(c, "staffId")
	if !ok {
		return
	}

	var req AssignServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	var staff models.Staff
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND business_id = ?", staffID, businessID).
		First(&staff).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "staff_not_found", "Staff member not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_staff", "Could not load staff member.")
		return
	}

	services, ok := h.ownServices(c, businessID, req.ServiceIDs)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(&staff).
		Association("Services").
		Replace(services); err != nil {

		httperr.Internal(c, "failed_to_assign_services", "Could not assign services.")
		return
	}

	staff.Services = services
	c.JSON(http.StatusOK, staff)
}

// ownServices loads ids and fails the request unless all belong to businessID.
func (h *StaffHandler) ownServices(c *gin.Context, businessID uint, ids []uint) ([]models.Service, bool) {
	services := []models.Service{}
	if len(ids) == 0 {
		return services, true
	}

	if err := h.db.WithContext(c.Request.Context()).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Find(&services).Error; err != nil {

		httperr.Internal(c, "failed_to_get_services", "Could not load services.")
		return nil, false
	}

	if len(services) != len(uniq(ids)) {
		httperr.BadRequest(c, "service_not_found", "Unknown service in service_ids.")
		return nil, false
	}
	return services, true
}

func uniq(ids []uint) map[uint]struct{} {
	m := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
