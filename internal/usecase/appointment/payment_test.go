package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/booking-engine/internal/audit"
	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/payment"
)

const webhookSecret = "whsec_local"

type failingGateway struct {
	*payment.LocalGateway
}

func (failingGateway) CreateOrder(context.Context, payment.OrderRequest) (payment.Order, error) {
	return payment.Order{}, errors.New("connection reset")
}

var paymentOpts = PaymentOptions{
	HoldTTL:               10 * time.Minute,
	DefaultDepositPercent: 30,
	Currency:              "usd",
}

func newPaymentOrder(r *memRepo, gw payment.Gateway, now time.Time) *CreatePaymentOrder {
	uc := NewCreatePaymentOrder(r, gw, nil, BookingPolicy{}, paymentOpts, zerolog.Nop())
	uc.now = func() time.Time { return now }
	return uc
}

func newCallback(r *memRepo, d *audit.Dispatcher, now time.Time) *HandlePaymentCallback {
	uc := NewHandlePaymentCallback(r, payment.NewLocalGateway(webhookSecret), d, zerolog.Nop())
	uc.now = func() time.Time { return now }
	return uc
}

func orderIn(serviceID uint, start time.Time, percent *int) PaymentOrderInput {
	return PaymentOrderInput{BookingInput: bookingIn(serviceID, start), DepositPercent: percent}
}

func signed(t *testing.T, orderID, status string) ([]byte, http.Header) {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"orderId":   orderID,
		"paymentId": "pay_" + status,
		"status":    status,
		"method":    "card",
	})
	require.NoError(t, err)

	h := http.Header{}
	h.Set(payment.LocalSignatureHeader, payment.Sign([]byte(webhookSecret), body))
	return body, h
}

func intp(v int) *int { return &v }

// ======================================================
// Payment order
// ======================================================

func TestCreatePaymentOrderPlacesHold(t *testing.T) {
	r := seedRepo()

	res, err := newPaymentOrder(r, payment.NewLocalGateway(webhookSecret), today).
		Execute(context.Background(), orderIn(hourlyID, at(monday, 10, 0), nil))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.OrderID, "local_"))
	assert.Equal(t, int64(1365), res.Amount)
	assert.Equal(t, 30, res.DepositPercent)
	assert.Equal(t, "usd", res.Currency)
	assert.Equal(t, today.Add(10*time.Minute), res.HoldExpiresAt)

	ap := r.get(res.AppointmentID)
	assert.Equal(t, string(domain.StatusAwaitingPayment), ap.Status)
	require.NotNil(t, ap.Payment.OrderID)
	assert.Equal(t, res.OrderID, *ap.Payment.OrderID)
	assert.Equal(t, string(domain.PaymentPending), ap.Payment.Status)
	assert.Equal(t, "local", ap.Payment.Gateway)
	require.NotNil(t, ap.HoldExpiresAt)

	// the hold blocks a direct booking
	_, err = newBooking(r, today).Execute(context.Background(), bookingIn(hourlyID, at(monday, 10, 30)))
	assertCode(t, err, "slot_unavailable")
}

func TestCreatePaymentOrderDeposit(t *testing.T) {
	tests := []struct {
		name    string
		service uint
		percent *int
		amount  int64
		applied int
	}{
		{"default", hourlyID, nil, 1365, 30},
		{"rounded", shortID, intp(33), 330, 33},
		{"clamped high", hourlyID, intp(150), 4550, 100},
		{"full", shortID, intp(100), 1001, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := seedRepo()
			res, err := newPaymentOrder(r, payment.NewLocalGateway(webhookSecret), today).
				Execute(context.Background(), orderIn(tt.service, at(monday, 10, 0), tt.percent))
			require.NoError(t, err)
			assert.Equal(t, tt.amount, res.Amount)
			assert.Equal(t, tt.applied, res.DepositPercent)
		})
	}

	r := seedRepo()
	_, err := newPaymentOrder(r, payment.NewLocalGateway(webhookSecret), today).
		Execute(context.Background(), orderIn(hourlyID, at(monday, 10, 0), intp(-5)))
	assertCode(t, err, "payment_amount_too_small")
	assert.Equal(t, 0, r.count(domain.StatusAwaitingPayment))
}

func TestCreatePaymentOrderGatewayFailureReleasesHold(t *testing.T) {
	r := seedRepo()
	gw := failingGateway{payment.NewLocalGateway(webhookSecret)}

	_, err := newPaymentOrder(r, gw, today).Execute(context.Background(), orderIn(hourlyID, at(monday, 10, 0), nil))
	assertCode(t, err, "payment_gateway_error")
	assert.True(t, httperr.IsKind(err, httperr.KindUpstream))
	assert.Contains(t, err.Error(), "connection reset")

	assert.Equal(t, 1, r.count(domain.StatusCancelled))
	assert.Equal(t, 0, r.count(domain.StatusAwaitingPayment))

	_, err = newBooking(r, today).Execute(context.Background(), bookingIn(hourlyID, at(monday, 10, 0)))
	require.NoError(t, err)
}

// ======================================================
// Callback
// ======================================================

func placeHold(t *testing.T, r *memRepo) *PaymentOrderResult {
	t.Helper()
	res, err := newPaymentOrder(r, payment.NewLocalGateway(webhookSecret), today).
		Execute(context.Background(), orderIn(hourlyID, at(monday, 10, 0), nil))
	require.NoError(t, err)
	return res
}

func TestCallbackConfirmsOnceAndIgnoresReplays(t *testing.T) {
	r := seedRepo()
	hold := placeHold(t, r)
	uc := newCallback(r, nil, today.Add(2*time.Minute))
	ctx := context.Background()

	body, h := signed(t, hold.OrderID, "captured")

	res, err := uc.Execute(ctx, body, h)
	require.NoError(t, err)
	assert.True(t, res.Known)
	assert.Equal(t, domain.OutcomeConfirmed, res.Outcome)
	assert.Equal(t, hold.AppointmentID, res.AppointmentID)

	ap := r.get(hold.AppointmentID)
	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)
	assert.Equal(t, string(domain.PaymentPaid), ap.Payment.Status)
	assert.Equal(t, "pay_captured", ap.Payment.PaymentID)
	assert.Equal(t, "card", ap.Payment.Method)
	assert.Nil(t, ap.HoldExpiresAt)
	paidAt := ap.Payment.PaidAt

	res, err = uc.Execute(ctx, body, h)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, res.Outcome)

	// late failure for a confirmed appointment
	body, h = signed(t, hold.OrderID, "failed")
	res, err = uc.Execute(ctx, body, h)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, res.Outcome)

	ap = r.get(hold.AppointmentID)
	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)
	assert.Equal(t, paidAt, ap.Payment.PaidAt)
}

func TestCallbackFailureFreesSlot(t *testing.T) {
	r := seedRepo()
	hold := placeHold(t, r)

	body, h := signed(t, hold.OrderID, "failed")
	res, err := newCallback(r, nil, today).Execute(context.Background(), body, h)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)

	ap := r.get(hold.AppointmentID)
	assert.Equal(t, string(domain.StatusPaymentFailed), ap.Status)
	assert.NotNil(t, ap.Payment.FailedAt)

	_, err = newBooking(r, today).Execute(context.Background(), bookingIn(hourlyID, at(monday, 10, 0)))
	require.NoError(t, err)
}

func TestCallbackRejectsAndIgnores(t *testing.T) {
	r := seedRepo()
	hold := placeHold(t, r)
	uc := newCallback(r, nil, today)
	ctx := context.Background()

	body, _ := signed(t, hold.OrderID, "captured")
	bad := http.Header{}
	bad.Set(payment.LocalSignatureHeader, payment.Sign([]byte("other"), body))

	_, err := uc.Execute(ctx, body, bad)
	assertCode(t, err, "invalid_signature")
	assert.Equal(t, string(domain.StatusAwaitingPayment), r.get(hold.AppointmentID).Status)

	raw := []byte(`{"status":"captured"}`)
	h := http.Header{}
	h.Set(payment.LocalSignatureHeader, payment.Sign([]byte(webhookSecret), raw))
	_, err = uc.Execute(ctx, raw, h)
	assertCode(t, err, "invalid_payload")

	body, h = signed(t, "local_missing", "captured")
	res, err := uc.Execute(ctx, body, h)
	require.NoError(t, err)
	assert.False(t, res.Known)

	body, h = signed(t, hold.OrderID, "pending")
	res, err = uc.Execute(ctx, body, h)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, res.Outcome)
	assert.Equal(t, string(domain.StatusAwaitingPayment), r.get(hold.AppointmentID).Status)
}

func TestPaymentAfterExpiryIsOrphaned(t *testing.T) {
	r := seedRepo()
	hold := placeHold(t, r)

	sink := &recordingSink{}
	d := audit.NewDispatcher(sink, nil, zerolog.Nop())

	later := today.Add(11 * time.Minute)

	reaper := NewExpireHolds(r, d)
	reaper.now = func() time.Time { return later }

	n, err := reaper.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	body, h := signed(t, hold.OrderID, "captured")
	res, err := newCallback(r, d, later).Execute(context.Background(), body, h)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeOrphaned, res.Outcome)

	ap := r.get(hold.AppointmentID)
	assert.Equal(t, string(domain.StatusCancelled), ap.Status)
	assert.Equal(t, string(domain.PaymentPaid), ap.Payment.Status)

	d.Close()
	assert.Equal(t, []string{"appointment.expired", "payment.orphaned"}, sink.seen())
}

func TestExpireHoldsLeavesLiveHolds(t *testing.T) {
	r := seedRepo()
	placeHold(t, r)

	reaper := NewExpireHolds(r, nil)
	reaper.now = func() time.Time { return today.Add(9 * time.Minute) }

	n, err := reaper.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, r.count(domain.StatusAwaitingPayment))
}

func TestExpireHoldsRunStopsWithContext(t *testing.T) {
	r := seedRepo()
	reaper := NewExpireHolds(r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx, time.Millisecond, zerolog.Nop())
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}

func TestBookingReleasesStaleHold(t *testing.T) {
	r := seedRepo()
	hold := placeHold(t, r)
	later := today.Add(11 * time.Minute)

	sink := &recordingSink{}
	d := audit.NewDispatcher(sink, nil, zerolog.Nop())

	uc := NewCreateBooking(r, d, BookingPolicy{})
	uc.now = func() time.Time { return later }

	res, err := uc.Execute(context.Background(), bookingIn(hourlyID, at(monday, 10, 0)))
	require.NoError(t, err)
	d.Close()

	assert.Equal(t, []string{"appointment.expired", "appointment.created"}, sink.seen())
	assert.Equal(t, string(domain.StatusCancelled), r.get(hold.AppointmentID).Status)
	assert.Equal(t, string(domain.StatusConfirmed), r.get(res.ID).Status)

	// nothing left for the reaper
	reaper := NewExpireHolds(r, nil)
	reaper.now = func() time.Time { return later }
	n, err := reaper.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPaymentOrderReleasesStaleHold(t *testing.T) {
	r := seedRepo()
	hold := placeHold(t, r)
	later := today.Add(11 * time.Minute)

	sink := &recordingSink{}
	d := audit.NewDispatcher(sink, nil, zerolog.Nop())

	uc := NewCreatePaymentOrder(r, payment.NewLocalGateway(webhookSecret), d, BookingPolicy{}, paymentOpts, zerolog.Nop())
	uc.now = func() time.Time { return later }

	res, err := uc.Execute(context.Background(), orderIn(hourlyID, at(monday, 10, 0), nil))
	require.NoError(t, err)
	d.Close()

	assert.NotEqual(t, hold.AppointmentID, res.AppointmentID)
	seen := sink.seen()
	require.NotEmpty(t, seen)
	assert.Equal(t, "appointment.expired", seen[0])
	assert.Equal(t, string(domain.StatusCancelled), r.get(hold.AppointmentID).Status)
	assert.Equal(t, string(domain.StatusAwaitingPayment), r.get(res.AppointmentID).Status)
}
