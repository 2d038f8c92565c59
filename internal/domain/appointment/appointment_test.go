package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/scheduling"
)

var now = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

func hold(expiresIn time.Duration) *models.Appointment {
	exp := now.Add(expiresIn)
	return &models.Appointment{
		ID:            1,
		Status:        string(StatusAwaitingPayment),
		HoldExpiresAt: &exp,
		Payment:       models.AppointmentPayment{Status: string(PaymentPending)},
	}
}

func TestCancelAndComplete(t *testing.T) {
	ap := &models.Appointment{Status: string(StatusConfirmed)}
	require.NoError(t, Complete(ap, now))
	assert.Equal(t, string(StatusCompleted), ap.Status)
	assert.Equal(t, now, *ap.CompletedAt)

	err := Cancel(ap, now)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	ap = hold(time.Minute)
	require.NoError(t, Cancel(ap, now))
	assert.Equal(t, string(StatusCancelled), ap.Status)

	err = Complete(&models.Appointment{Status: string(StatusAwaitingPayment)}, now)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
}

func TestExpire(t *testing.T) {
	live := hold(time.Minute)
	assert.False(t, Expire(live, now))
	assert.Equal(t, string(StatusAwaitingPayment), live.Status)

	stale := hold(-time.Second)
	assert.True(t, Expire(stale, now))
	assert.Equal(t, string(StatusCancelled), stale.Status)

	confirmed := &models.Appointment{Status: string(StatusConfirmed)}
	assert.False(t, Expire(confirmed, now))
}

func TestApplyPaymentSuccessIsIdempotent(t *testing.T) {
	ap := hold(5 * time.Minute)
	res := PaymentResult{Succeeded: true, PaymentID: "pay_1", Method: "card"}

	assert.Equal(t, OutcomeConfirmed, ApplyPayment(ap, res, now))
	assert.Equal(t, string(StatusConfirmed), ap.Status)
	assert.Equal(t, string(PaymentPaid), ap.Payment.Status)
	assert.Equal(t, "pay_1", ap.Payment.PaymentID)
	assert.Nil(t, ap.HoldExpiresAt)

	snapshot := *ap
	later := now.Add(time.Minute)
	assert.Equal(t, OutcomeIgnored, ApplyPayment(ap, res, later))
	assert.Equal(t, snapshot, *ap)

	// a late failure must not undo a confirmation
	assert.Equal(t, OutcomeIgnored, ApplyPayment(ap, PaymentResult{Succeeded: false}, later))
	assert.Equal(t, snapshot, *ap)
}

func TestApplyPaymentFailure(t *testing.T) {
	ap := hold(5 * time.Minute)
	assert.Equal(t, OutcomeFailed, ApplyPayment(ap, PaymentResult{}, now))
	assert.Equal(t, string(StatusPaymentFailed), ap.Status)
	assert.Equal(t, string(PaymentFailed), ap.Payment.Status)
	assert.Equal(t, now, *ap.Payment.FailedAt)

	assert.Equal(t, OutcomeIgnored, ApplyPayment(ap, PaymentResult{}, now))
}

func TestApplyPaymentAfterExpiryIsOrphaned(t *testing.T) {
	ap := hold(-time.Minute)
	require.True(t, Expire(ap, now))

	out := ApplyPayment(ap, PaymentResult{Succeeded: true, PaymentID: "pay_2"}, now)
	assert.Equal(t, OutcomeOrphaned, out)
	assert.Equal(t, string(StatusCancelled), ap.Status)
	assert.Equal(t, string(PaymentPaid), ap.Payment.Status)

	assert.Equal(t, OutcomeIgnored, ApplyPayment(ap, PaymentResult{Succeeded: true}, now))
}

func TestApplyPaymentSuccessAfterFailureIsOrphaned(t *testing.T) {
	ap := hold(time.Minute)
	require.Equal(t, OutcomeFailed, ApplyPayment(ap, PaymentResult{}, now))

	// a retried intent can still succeed after the failure was recorded
	out := ApplyPayment(ap, PaymentResult{Succeeded: true, PaymentID: "pay_3"}, now)
	assert.Equal(t, OutcomeOrphaned, out)
	assert.Equal(t, string(StatusPaymentFailed), ap.Status)
	assert.Equal(t, string(PaymentPaid), ap.Payment.Status)
	assert.Nil(t, ap.Payment.FailedAt)
}

func TestApplyPaymentConfirmsUnreapedExpiredHold(t *testing.T) {
	ap := hold(-time.Minute)
	assert.Equal(t, OutcomeConfirmed, ApplyPayment(ap, PaymentResult{Succeeded: true}, now))
	assert.Equal(t, string(StatusConfirmed), ap.Status)
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusAwaitingPayment, InitialStatus(true))
	assert.Equal(t, StatusConfirmed, InitialStatus(false))
	assert.True(t, StatusPaymentFailed.Terminal())
	assert.False(t, StatusAwaitingPayment.Terminal())
}

func TestWeeklyScheduleValidate(t *testing.T) {
	var w WeeklySchedule
	w[time.Monday] = DaySchedule{
		Active: true, Start: "09:00", End: "17:00",
		Breaks: []scheduling.Window{{Start: "12:00", End: "13:00"}, {Start: "15:00", End: "15:15"}},
	}
	// inactive days may carry junk
	w[time.Sunday] = DaySchedule{Active: false, Start: "nope"}
	require.NoError(t, w.Validate())

	tests := []struct {
		name string
		day  DaySchedule
	}{
		{"bad clock", DaySchedule{Active: true, Start: "9:00", End: "17:00"}},
		{"signed clock", DaySchedule{Active: true, Start: "+9:00", End: "17:00"}},
		{"signed break", DaySchedule{Active: true, Start: "09:00", End: "17:00", Breaks: []scheduling.Window{{Start: "12:00", End: "13:+5"}}}},
		{"inverted", DaySchedule{Active: true, Start: "17:00", End: "09:00"}},
		{"empty break", DaySchedule{Active: true, Start: "09:00", End: "17:00", Breaks: []scheduling.Window{{Start: "12:00", End: "12:00"}}}},
		{"break outside", DaySchedule{Active: true, Start: "09:00", End: "17:00", Breaks: []scheduling.Window{{Start: "16:30", End: "17:30"}}}},
		{"break before open", DaySchedule{Active: true, Start: "09:00", End: "17:00", Breaks: []scheduling.Window{{Start: "08:00", End: "09:30"}}}},
		{"overlapping breaks", DaySchedule{Active: true, Start: "09:00", End: "17:00", Breaks: []scheduling.Window{{Start: "12:00", End: "13:00"}, {Start: "12:30", End: "13:30"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bad WeeklySchedule
			bad[time.Wednesday] = tt.day
			err := bad.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSchedule)
			assert.Contains(t, err.Error(), "Wednesday")
		})
	}
}

func TestScheduleModelConversion(t *testing.T) {
	rows := []models.WorkingHours{
		{Weekday: 1, Active: true, StartTime: "09:00", EndTime: "17:00", Breaks: models.BreakWindows{{Start: "15:00", End: "15:30"}, {Start: "12:00", End: "13:00"}}},
		{Weekday: 2, Active: true},
		{Weekday: 9, Active: true, StartTime: "09:00", EndTime: "10:00"},
	}

	w := ScheduleFromModels(rows)
	mon := w.Day(time.Monday)
	assert.True(t, mon.Active)
	assert.Equal(t, "12:00", mon.Breaks[0].Start, "breaks are ordered")
	assert.False(t, w.Day(time.Tuesday).Active, "missing clocks deactivate the day")
	assert.False(t, w.Day(time.Sunday).Active)

	out := w.ToModels(7)
	require.Len(t, out, 7)
	assert.Equal(t, uint(7), out[1].StaffID)
	assert.Equal(t, 1, out[1].Weekday)
	assert.Len(t, out[1].Breaks, 2)
}
