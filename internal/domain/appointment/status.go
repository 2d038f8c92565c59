package appointment

import "github.com/BruksfildServices01/booking-engine/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending         Status = "pending"
	StatusConfirmed       Status = "confirmed"
	StatusCancelled       Status = "cancelled"
	StatusCompleted       Status = "completed"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaymentFailed   Status = "payment_failed"
)

// Terminal states never transition again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusPaymentFailed:
		return true
	}
	return false
}

// ActiveStatuses hold their interval against new bookings. Awaiting
// payment only counts while the hold has not expired.
var ActiveStatuses = []string{
	string(StatusPending),
	string(StatusConfirmed),
	string(StatusAwaitingPayment),
}

// ===============================
// Payment Status
// ===============================

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// ===============================
// Validations
// ===============================

func CanCancel(current Status) error {
	switch current {
	case StatusPending, StatusConfirmed, StatusAwaitingPayment:
		return nil
	}
	return httperr.ErrBusiness("invalid_state")
}

func CanComplete(current Status) error {
	switch current {
	case StatusPending, StatusConfirmed:
		return nil
	}
	return httperr.ErrBusiness("invalid_state")
}

// InitialStatus is the status a new booking is inserted with.
func InitialStatus(withPayment bool) Status {
	if withPayment {
		return StatusAwaitingPayment
	}
	return StatusConfirmed
}
