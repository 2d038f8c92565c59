package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/httpresp"
	"github.com/BruksfildServices01/booking-engine/internal/timezone"
	"github.com/BruksfildServices01/booking-engine/internal/usecase/appointment"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type PublicHandler struct {
	availability *appointment.GetAvailability
	create       *appointment.CreateBooking
	paymentOrder *appointment.CreatePaymentOrder
	log          zerolog.Logger
}

func NewPublicHandler(
	availability *appointment.GetAvailability,
	create *appointment.CreateBooking,
	paymentOrder *appointment.CreatePaymentOrder,
	log zerolog.Logger,
) *PublicHandler {
	return &PublicHandler{
		availability: availability,
		create:       create,
		paymentOrder: paymentOrder,
		log:          log,
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type ClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreateBookingRequest struct {
	ServiceID uint          `json:"serviceId" binding:"required"`
	StaffID   uint          `json:"staffId" binding:"required"`
	StartTime string        `json:"startTime" binding:"required"` // RFC3339
	Client    ClientRequest `json:"client"`
	Notes     string        `json:"notes" binding:"max=255"`
}

type PaymentOrderRequest struct {
	CreateBookingRequest
	DepositPercent *int `json:"depositPercent"`
}

func (r CreateBookingRequest) toInput(slug string) (domain.BookingInput, error) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(r.StartTime))
	if err != nil {
		return domain.BookingInput{}, httperr.ErrBusiness("invalid_start_time")
	}

	return domain.BookingInput{
		BusinessSlug: slug,
		ServiceID:    r.ServiceID,
		StaffID:      r.StaffID,
		Start:        start,
		Client: domain.ClientContact{
			Name:  r.Client.Name,
			Email: r.Client.Email,
			Phone: r.Client.Phone,
		},
		Notes: r.Notes,
	}, nil
}

////////////////////////////////////////////////////////
// AVAILABILITY
////////////////////////////////////////////////////////

func (h *PublicHandler) Availability(c *gin.Context) {
	dateStr := c.Query("date")
	serviceStr := c.Query("serviceId")
	staffStr := c.Query("staffId")

	if dateStr == "" || serviceStr == "" || staffStr == "" {
		httpresp.FailCode(c, http.StatusBadRequest, "missing_params")
		return
	}

	date, err := timezone.ParseDate(dateStr)
	if err != nil {
		httpresp.FailCode(c, http.StatusBadRequest, "invalid_date")
		return
	}

	serviceID, err1 := strconv.ParseUint(serviceStr, 10, 64)
	staffID, err2 := strconv.ParseUint(staffStr, 10, 64)
	if err1 != nil || err2 != nil {
		httpresp.FailCode(c, http.StatusBadRequest, "invalid_params")
		return
	}

	slots, err := h.availability.Execute(
		c.Request.Context(),
		domain.AvailabilityInput{
			BusinessSlug: c.Param("businessSlug"),
			ServiceID:    uint(serviceID),
			StaffID:      uint(staffID),
			Date:         date,
		},
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.UTC().Format(time.RFC3339))
	}

	httpresp.Success(c, http.StatusOK, out)
}

////////////////////////////////////////////////////////
// DIRECT BOOKING
////////////////////////////////////////////////////////

func (h *PublicHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.FailCode(c, http.StatusBadRequest, "invalid_request")
		return
	}

	in, err := req.toInput(c.Param("businessSlug"))
	if err != nil {
		h.fail(c, err)
		return
	}

	ap, err := h.create.Execute(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	httpresp.Success(c, http.StatusCreated, ap)
}

////////////////////////////////////////////////////////
// PAYMENT ORDER
////////////////////////////////////////////////////////

func (h *PublicHandler) PaymentOrder(c *gin.Context) {
	var req PaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.FailCode(c, http.StatusBadRequest, "invalid_request")
		return
	}

	in, err := req.toInput(c.Param("businessSlug"))
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.paymentOrder.Execute(
		c.Request.Context(),
		appointment.PaymentOrderInput{
			BookingInput:   in,
			DepositPercent: req.DepositPercent,
		},
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *PublicHandler) fail(c *gin.Context, err error) {
	switch status := httperr.StatusOf(err); {
	case status == http.StatusConflict:
		h.log.Info().Str("path", c.FullPath()).Msg("booking conflict")
	case status == http.StatusBadGateway:
		// already logged with the gateway error
	case status >= http.StatusInternalServerError:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("booking request failed")
	}
	httpresp.Fail(c, err)
}
