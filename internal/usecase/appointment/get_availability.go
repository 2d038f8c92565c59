package appointment

import (
	"context"
	"errors"
	"time"

	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/scheduling"
	"github.com/BruksfildServices01/booking-engine/internal/timezone"
)

const defaultSlotStep = 15

type GetAvailability struct {
	repo domain.Repository
	now  func() time.Time
}

func NewGetAvailability(repo domain.Repository) *GetAvailability {
	return &GetAvailability{repo: repo, now: time.Now}
}

// Execute returns the free start instants (UTC) for one service and staff
// member on a local date. Reads take no locks; the booking itself re-checks.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]time.Time, error) {

	t, err := resolveTarget(ctx, uc.repo, in.BusinessSlug, in.ServiceID, in.StaffID)
	if err != nil {
		return nil, err
	}

	wh, err := uc.repo.GetWorkingHours(ctx, t.staff.ID, int(in.Date.Weekday()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []time.Time{}, nil
		}
		return nil, err
	}

	day := domain.DayFromModel(*wh)
	if !day.Active {
		return []time.Time{}, nil
	}

	step := t.business.SlotIntervalMinutes
	if step <= 0 {
		step = defaultSlotStep
	}

	slots, err := scheduling.GenerateSlots(in.Date, day.Start, day.End, step, t.tz())
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return slots, nil
	}

	open, err := timezone.ToInstant(in.Date, day.Start, t.tz())
	if err != nil {
		return nil, err
	}
	closing, err := timezone.ToInstant(in.Date, day.End, t.tz())
	if err != nil {
		return nil, err
	}

	svc := t.engineService()
	now := uc.now().UTC()

	// anything that can reach into the last slot's occupied span
	busy, err := uc.repo.ListBlockingIntervals(
		ctx,
		t.staff.ID,
		open,
		closing.Add(svc.Duration+svc.Buffer),
		now,
	)
	if err != nil {
		return nil, err
	}

	free, err := scheduling.FilterAvailable(
		slots,
		svc,
		scheduling.Constraints{Busy: busy, Breaks: day.Breaks, Close: day.End},
		in.Date,
		t.tz(),
	)
	if err != nil {
		return nil, err
	}

	earliest := now.Add(time.Duration(t.business.MinAdvanceMinutes) * time.Minute)

	out := make([]time.Time, 0, len(free))
	for _, s := range free {
		if s.Before(earliest) {
			continue
		}
		out = append(out, s)
	}

	return out, nil
}
