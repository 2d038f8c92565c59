package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/booking-engine/internal/audit"
	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/middleware"
	"github.com/BruksfildServices01/booking-engine/internal/scheduling"
)

type WorkingHoursHandler struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewWorkingHoursHandler(repo domain.Repository, audit *audit.Dispatcher) *WorkingHoursHandler {
	return &WorkingHoursHandler{repo: repo, audit: audit}
}

type WorkingDayConfig struct {
	Weekday   *int                `json:"weekday" binding:"required,min=0,max=6"`
	Active    bool                `json:"active"`
	StartTime string              `json:"start_time"`
	EndTime   string              `json:"end_time"`
	Breaks    []scheduling.Window `json:"breaks"`
}

type WorkingHoursUpdateRequest struct {
	Days []WorkingDayConfig `json:"days" binding:"required,dive"`
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	staffID, ok := h.ownStaff(c)
	if !ok {
		return
	}

	rows, err := h.repo.ListWorkingHours(c.Request.Context(), staffID)
	if err != nil {
		httperr.Internal(c, "failed_to_get_working_hours", "Could not load working hours.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": scheduleToDays(domain.ScheduleFromModels(rows))})
}

// Update replaces the whole week. Weekdays left out of the request become
// days off.
func (h *WorkingHoursHandler) Update(c *gin.Context) {
	staffID, ok := h.ownStaff(c)
	if !ok {
		return
	}

	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	var week domain.WeeklySchedule
	seen := map[int]bool{}
	for _, d := range req.Days {
		wd := *d.Weekday
		if seen[wd] {
			httperr.BadRequest(c, "invalid_schedule", "Weekday listed twice.")
			return
		}
		seen[wd] = true

		week[wd] = domain.DaySchedule{
			Active: d.Active,
			Start:  d.StartTime,
			End:    d.EndTime,
			Breaks: d.Breaks,
		}
	}

	if err := week.Validate(); err != nil {
		httperr.BadRequest(c, "invalid_schedule", err.Error())
		return
	}

	if err := h.repo.ReplaceWorkingHours(c.Request.Context(), staffID, week.ToModels(staffID)); err != nil {
		httperr.Internal(c, "failed_to_save_working_hours", "Could not save working hours.")
		return
	}

	businessID := c.MustGet(middleware.ContextBusinessID).(uint)
	userID := c.MustGet(middleware.ContextUserID).(uint)
	h.audit.Dispatch(audit.Event{
		BusinessID: businessID,
		UserID:     &userID,
		Action:     "working_hours.updated",
		Entity:     "staff",
		EntityID:   &staffID,
	})

	c.JSON(http.StatusOK, gin.H{"days": scheduleToDays(week)})
}

// ownStaff resolves :staffId and checks it belongs to the caller's business.
func (h *WorkingHoursHandler) ownStaff(c *gin.Context) (uint, bool) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	staffID, ok := uintParam(c, "staffId")
	if !ok {
		return 0, false
	}

	if _, err := h.repo.GetStaff(c.Request.Context(), businessID, staffID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			httperr.NotFound(c, "staff_not_found", "Staff member not found.")
			return 0, false
		}
		httperr.Internal(c, "failed_to_get_staff", "Could not load staff member.")
		return 0, false
	}

	return staffID, true
}

func scheduleToDays(w domain.WeeklySchedule) []WorkingDayConfig {
	out := make([]WorkingDayConfig, 0, len(w))
	for i, d := range w {
		wd := i
		breaks := d.Breaks
		if breaks == nil {
			breaks = []scheduling.Window{}
		}
		out = append(out, WorkingDayConfig{
			Weekday:   &wd,
			Active:    d.Active,
			StartTime: d.Start,
			EndTime:   d.End,
			Breaks:    breaks,
		})
	}
	return out
}
