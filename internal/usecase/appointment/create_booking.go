package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/booking-engine/internal/audit"
	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/metrics"
	"github.com/BruksfildServices01/booking-engine/internal/models"
)

// ======================================================
// USE CASE
// ======================================================

// CreateBooking books a slot directly, without a payment gate.
type CreateBooking struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	policy BookingPolicy
	now    func() time.Time
}

func NewCreateBooking(
	repo domain.Repository,
	audit *audit.Dispatcher,
	policy BookingPolicy,
) *CreateBooking {
	return &CreateBooking{
		repo:   repo,
		audit:  audit,
		policy: policy,
		now:    time.Now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	in domain.BookingInput,
) (*models.Appointment, error) {

	// --------------------------------------------------
	// 1. Business, service, staff
	// --------------------------------------------------
	t, err := resolveTarget(ctx, uc.repo, in.BusinessSlug, in.ServiceID, in.StaffID)
	if err != nil {
		return nil, err
	}

	if err := validateClient(in.Client, uc.policy); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2. Working hours, breaks, minimum advance
	// --------------------------------------------------
	now := uc.now().UTC()
	if err := checkBookable(ctx, uc.repo, t, in.Start, now); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3. Atomic insert
	// --------------------------------------------------
	ap := newAppointment(t, in.Start, in.Client, in.Notes, domain.InitialStatus(false))

	expired, err := uc.repo.CreateAppointmentAtomic(ctx, ap, now)
	if err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			reportConflict(uc.audit, ap)
			return nil, httperr.ErrConflict("slot_unavailable")
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrNotFound("staff_not_found")
		}
		return nil, err
	}

	reportExpired(uc.audit, expired)
	metrics.IncBookingCreated(ap.Status)

	uc.audit.Dispatch(audit.Event{
		BusinessID: ap.BusinessID,
		Action:     "appointment.created",
		Entity:     "appointment",
		EntityID:   &ap.ID,
		Metadata: map[string]any{
			"staff_id":   ap.StaffID,
			"service_id": ap.ServiceID,
			"start":      ap.StartTime,
			"status":     ap.Status,
		},
	})

	return ap, nil
}

func reportConflict(d *audit.Dispatcher, ap *models.Appointment) {
	metrics.IncBookingConflict()

	d.Dispatch(audit.Event{
		BusinessID: ap.BusinessID,
		Action:     "appointment.conflict",
		Entity:     "appointment",
		Metadata: map[string]any{
			"staff_id": ap.StaffID,
			"start":    ap.StartTime,
			"end":      ap.EndTime,
		},
	})
}
