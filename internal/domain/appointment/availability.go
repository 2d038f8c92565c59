package appointment

import (
	"time"

	"github.com/BruksfildServices01/booking-engine/internal/timezone"
)

type AvailabilityInput struct {
	BusinessSlug string
	ServiceID    uint
	StaffID      uint
	Date         timezone.Date
}

// ClientContact is who the appointment is booked for.
type ClientContact struct {
	Name  string
	Email string
	Phone string
}

type BookingInput struct {
	BusinessSlug string
	ServiceID    uint
	StaffID      uint
	Start        time.Time
	Client       ClientContact
	Notes        string
}
