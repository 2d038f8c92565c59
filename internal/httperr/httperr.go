package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func BadGateway(c *gin.Context, code, message string) {
	Write(c, http.StatusBadGateway, code, message)
}

// StatusOf returns the HTTP status a use case error maps to.
func StatusOf(err error) int {
	be, ok := AsBusiness(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch be.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// FromError writes the standard error body for err. Errors that are not
// business errors are reported as internal_error without leaking detail.
func FromError(c *gin.Context, err error) {
	be, ok := AsBusiness(err)
	if !ok {
		Internal(c, "internal_error", messageFor("internal_error"))
		return
	}
	Write(c, StatusOf(err), be.Code, messageFor(be.Code))
}

var messages = map[string]string{
	"internal_error":           "Unexpected error.",
	"business_not_found":       "Business not found.",
	"service_not_found":        "Service not found.",
	"staff_not_found":          "Staff member not found.",
	"staff_not_assigned":       "Staff member does not perform this service.",
	"appointment_not_found":    "Appointment not found.",
	"slot_unavailable":         "Slot unavailable.",
	"outside_working_hours":    "Requested time is outside working hours.",
	"too_soon":                 "Requested time is too soon.",
	"invalid_state":            "Appointment cannot change to this state.",
	"invalid_date":             "Invalid date.",
	"invalid_start_time":       "Invalid start time.",
	"invalid_client":           "Client name and a valid email are required.",
	"invalid_email_domain":     "Email domain does not accept mail.",
	"invalid_schedule":         "Invalid working hours.",
	"invalid_signature":        "Invalid webhook signature.",
	"invalid_payload":          "Malformed request body.",
	"payment_gateway_error":    "Payment gateway unavailable.",
	"business_misconfigured":   "Business configuration is invalid.",
	"rate_limited":             "Too many requests.",
	"payment_amount_too_small": "Deposit amount is zero.",
}

func messageFor(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return code
}
