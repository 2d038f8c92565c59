package appointment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/booking-engine/internal/audit"
	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/metrics"
	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/payment"
)

type CallbackResult struct {
	// Known is false when the order id matched no appointment.
	Known         bool
	AppointmentID uint
	Outcome       domain.Outcome
}

type HandlePaymentCallback struct {
	repo    domain.Repository
	gateway payment.Gateway
	audit   *audit.Dispatcher
	log     zerolog.Logger
	now     func() time.Time
}

func NewHandlePaymentCallback(
	repo domain.Repository,
	gateway payment.Gateway,
	audit *audit.Dispatcher,
	log zerolog.Logger,
) *HandlePaymentCallback {
	return &HandlePaymentCallback{
		repo:    repo,
		gateway: gateway,
		audit:   audit,
		log:     log,
		now:     time.Now,
	}
}

// Execute verifies and applies one gateway callback. Callbacks may repeat
// or arrive out of order; the transition is decided under the row lock.
func (uc *HandlePaymentCallback) Execute(
	ctx context.Context,
	body []byte,
	header http.Header,
) (*CallbackResult, error) {

	gw := uc.gateway.Name()

	ev, err := uc.gateway.ParseCallback(ctx, body, header)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			metrics.IncWebhook(gw, "invalid_signature")
			uc.log.Error().Str("gateway", gw).Msg("webhook signature verification failed")
			return nil, httperr.ErrBusiness("invalid_signature")
		case errors.Is(err, payment.ErrMalformedPayload):
			metrics.IncWebhook(gw, "malformed")
			return nil, httperr.ErrBusiness("invalid_payload")
		default:
			metrics.IncWebhook(gw, "error")
			return nil, err
		}
	}

	if ev.Kind == payment.EventIgnored {
		metrics.IncWebhook(gw, string(domain.OutcomeIgnored))
		return &CallbackResult{Known: true, Outcome: domain.OutcomeIgnored}, nil
	}

	res := domain.PaymentResult{
		Succeeded: ev.Kind == payment.EventSucceeded,
		PaymentID: ev.PaymentID,
		Method:    ev.Method,
	}

	var outcome domain.Outcome
	ap, err := uc.repo.MutateAppointment(
		ctx,
		domain.AppointmentLookup{OrderID: ev.OrderID},
		func(a *models.Appointment) (bool, error) {
			outcome = domain.ApplyPayment(a, res, uc.now().UTC())
			return outcome != domain.OutcomeIgnored, nil
		},
	)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncWebhook(gw, "unknown_order")
			uc.log.Info().
				Str("gateway", gw).
				Str("order_id", ev.OrderID).
				Str("type", ev.Type).
				Msg("webhook for unknown order ignored")
			return &CallbackResult{Known: false, Outcome: domain.OutcomeIgnored}, nil
		}
		return nil, err
	}

	metrics.IncWebhook(gw, string(outcome))
	uc.report(ap, outcome, ev)

	return &CallbackResult{Known: true, AppointmentID: ap.ID, Outcome: outcome}, nil
}

func (uc *HandlePaymentCallback) report(ap *models.Appointment, outcome domain.Outcome, ev payment.Event) {
	var action string
	switch outcome {
	case domain.OutcomeConfirmed:
		action = "appointment.confirmed"
	case domain.OutcomeFailed:
		action = "appointment.payment_failed"
	case domain.OutcomeOrphaned:
		action = "payment.orphaned"
		uc.log.Warn().
			Uint("appointment_id", ap.ID).
			Str("order_id", ev.OrderID).
			Str("payment_id", ev.PaymentID).
			Str("status", ap.Status).
			Msg("payment captured for a released slot, refund required")
	default:
		return
	}

	uc.audit.Dispatch(audit.Event{
		BusinessID: ap.BusinessID,
		Action:     action,
		Entity:     "appointment",
		EntityID:   &ap.ID,
		Metadata: map[string]any{
			"order_id":   ev.OrderID,
			"payment_id": ev.PaymentID,
			"gateway":    uc.gateway.Name(),
			"status":     ap.Status,
		},
	})
}
