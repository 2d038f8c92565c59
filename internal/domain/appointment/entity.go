package appointment

import (
	"time"

	"github.com/BruksfildServices01/booking-engine/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}

// HoldExpired reports whether ap is an unpaid hold past its expiry.
func HoldExpired(ap *models.Appointment, now time.Time) bool {
	return Status(ap.Status) == StatusAwaitingPayment &&
		ap.HoldExpiresAt != nil &&
		!now.Before(*ap.HoldExpiresAt)
}

// Expire cancels an expired hold. It is a no-op for anything else.
func Expire(ap *models.Appointment, now time.Time) bool {
	if !HoldExpired(ap, now) {
		return false
	}
	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return true
}

// ===============================
// Payment outcome
// ===============================

type PaymentResult struct {
	Succeeded bool
	PaymentID string
	Method    string
}

type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeFailed    Outcome = "payment_failed"
	// OutcomeOrphaned is a successful payment for a slot that was already
	// released; the money has to be refunded by hand.
	OutcomeOrphaned Outcome = "orphaned"
	OutcomeIgnored  Outcome = "ignored"
)

// ApplyPayment moves ap according to a gateway result. Replays and
// out-of-order results leave ap untouched and return OutcomeIgnored.
func ApplyPayment(ap *models.Appointment, res PaymentResult, now time.Time) Outcome {
	current := Status(ap.Status)
	paid := PaymentStatus(ap.Payment.Status) == PaymentPaid

	if !res.Succeeded {
		if current != StatusAwaitingPayment {
			return OutcomeIgnored
		}
		ap.Status = string(StatusPaymentFailed)
		ap.Payment.Status = string(PaymentFailed)
		ap.Payment.FailedAt = &now
		return OutcomeFailed
	}

	if paid {
		return OutcomeIgnored
	}

	markPaid(ap, res, now)

	switch current {
	case StatusAwaitingPayment, StatusPending:
		// still awaiting means nothing was booked over it, even if the hold
		// is past its expiry: lazy expiry runs before every insert.
		ap.Status = string(StatusConfirmed)
		ap.HoldExpiresAt = nil
		return OutcomeConfirmed
	case StatusConfirmed, StatusCompleted:
		return OutcomeConfirmed
	default:
		return OutcomeOrphaned
	}
}

func markPaid(ap *models.Appointment, res PaymentResult, now time.Time) {
	ap.Payment.Status = string(PaymentPaid)
	ap.Payment.PaidAt = &now
	ap.Payment.FailedAt = nil
	if res.PaymentID != "" {
		ap.Payment.PaymentID = res.PaymentID
	}
	if res.Method != "" {
		ap.Payment.Method = res.Method
	}
}
