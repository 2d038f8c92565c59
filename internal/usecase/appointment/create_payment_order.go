package appointment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/booking-engine/internal/audit"
	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/metrics"
	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/payment"
)

type PaymentOrderInput struct {
	domain.BookingInput

	// DepositPercent nil means the configured default.
	DepositPercent *int
}

type PaymentOrderResult struct {
	OrderID          string    `json:"orderId"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	DepositPercent   int       `json:"depositPercent"`
	GatewayPublicKey string    `json:"gatewayPublicKey"`
	AppointmentID    uint      `json:"appointmentId"`
	HoldExpiresAt    time.Time `json:"holdExpiresAt"`
	ClientSecret     string    `json:"clientSecret,omitempty"`
	CheckoutURL      string    `json:"checkoutUrl,omitempty"`
}

type PaymentOptions struct {
	HoldTTL               time.Duration
	DefaultDepositPercent int
	// Currency is used when the business has none of its own.
	Currency string
}

// ======================================================
// USE CASE
// ======================================================

type CreatePaymentOrder struct {
	repo    domain.Repository
	gateway payment.Gateway
	audit   *audit.Dispatcher
	policy  BookingPolicy
	opts    PaymentOptions
	log     zerolog.Logger
	now     func() time.Time
}

func NewCreatePaymentOrder(
	repo domain.Repository,
	gateway payment.Gateway,
	audit *audit.Dispatcher,
	policy BookingPolicy,
	opts PaymentOptions,
	log zerolog.Logger,
) *CreatePaymentOrder {
	return &CreatePaymentOrder{
		repo:    repo,
		gateway: gateway,
		audit:   audit,
		policy:  policy,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
}

func (uc *CreatePaymentOrder) Execute(
	ctx context.Context,
	in PaymentOrderInput,
) (*PaymentOrderResult, error) {

	t, err := resolveTarget(ctx, uc.repo, in.BusinessSlug, in.ServiceID, in.StaffID)
	if err != nil {
		return nil, err
	}

	if err := validateClient(in.Client, uc.policy); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	if err := checkBookable(ctx, uc.repo, t, in.Start, now); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Deposit
	// --------------------------------------------------
	percent := payment.ClampDeposit(in.DepositPercent, uc.opts.DefaultDepositPercent)
	amount := payment.DepositAmount(t.service.Price, percent)
	if amount <= 0 {
		return nil, httperr.ErrBusiness("payment_amount_too_small")
	}

	currency := t.business.Currency
	if currency == "" {
		currency = uc.opts.Currency
	}

	// --------------------------------------------------
	// Hold
	// --------------------------------------------------
	expires := now.Add(uc.opts.HoldTTL)

	ap := newAppointment(t, in.Start, in.Client, in.Notes, domain.InitialStatus(true))
	ap.HoldExpiresAt = &expires
	ap.Payment = models.AppointmentPayment{
		Gateway:        uc.gateway.Name(),
		Amount:         amount,
		Currency:       currency,
		DepositPercent: percent,
		Status:         string(domain.PaymentPending),
	}

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

	// --------------------------------------------------
	// Gateway order
	// --------------------------------------------------
	order, err := uc.gateway.CreateOrder(ctx, payment.OrderRequest{
		Reference:     "appointment-" + strconv.FormatUint(uint64(ap.ID), 10),
		Amount:        amount,
		Currency:      currency,
		Description:   fmt.Sprintf("%s deposit, %s", t.service.Name, t.business.Name),
		CustomerEmail: ap.ClientEmail,
		Metadata: map[string]string{
			"appointment_id": strconv.FormatUint(uint64(ap.ID), 10),
			"business_id":    strconv.FormatUint(uint64(ap.BusinessID), 10),
		},
	})
	if err != nil {
		metrics.IncGatewayError(uc.gateway.Name())
		uc.log.Warn().Err(err).
			Uint("appointment_id", ap.ID).
			Str("gateway", uc.gateway.Name()).
			Msg("payment order failed, releasing hold")

		uc.release(ctx, ap.ID, ap.BusinessID)
		return nil, fmt.Errorf("%w: %w", httperr.ErrUpstream("payment_gateway_error"), err)
	}

	saved, err := uc.repo.MutateAppointment(
		ctx,
		domain.AppointmentLookup{ID: ap.ID, BusinessID: ap.BusinessID},
		func(a *models.Appointment) (bool, error) {
			id := order.ID
			a.Payment.OrderID = &id
			return true, nil
		},
	)
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BusinessID: saved.BusinessID,
		Action:     "appointment.hold_created",
		Entity:     "appointment",
		EntityID:   &saved.ID,
		Metadata: map[string]any{
			"order_id":        order.ID,
			"gateway":         uc.gateway.Name(),
			"amount":          amount,
			"currency":        currency,
			"hold_expires_at": expires,
		},
	})

	return &PaymentOrderResult{
		OrderID:          order.ID,
		Amount:           amount,
		Currency:         currency,
		DepositPercent:   percent,
		GatewayPublicKey: uc.gateway.PublicKey(),
		AppointmentID:    saved.ID,
		HoldExpiresAt:    expires,
		ClientSecret:     order.ClientSecret,
		CheckoutURL:      order.CheckoutURL,
	}, nil
}

// release cancels a hold whose order could not be created. The reaper
// catches it anyway if this fails.
func (uc *CreatePaymentOrder) release(ctx context.Context, id, businessID uint) {
	now := uc.now().UTC()

	_, err := uc.repo.MutateAppointment(
		ctx,
		domain.AppointmentLookup{ID: id, BusinessID: businessID},
		func(a *models.Appointment) (bool, error) {
			if domain.Status(a.Status) != domain.StatusAwaitingPayment {
				return false, nil
			}
			return true, domain.Cancel(a, now)
		},
	)
	if err != nil {
		uc.log.Error().Err(err).Uint("appointment_id", id).Msg("releasing hold failed")
		return
	}

	uc.audit.Dispatch(audit.Event{
		BusinessID: businessID,
		Action:     "appointment.cancelled",
		Entity:     "appointment",
		EntityID:   &id,
		Metadata:   map[string]any{"reason": "payment_gateway_error"},
	})
}
