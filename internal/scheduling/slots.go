package scheduling

import (
	"errors"
	"time"

	"github.com/BruksfildServices01/booking-engine/internal/timezone"
)

// MaxSlotsPerDay bounds the generator output; a one-minute step over a
// full day stays well under it.
const MaxSlotsPerDay = 1500

var ErrInvalidStep = errors.New("slot step must be positive")

// GenerateSlots returns the candidate start instants for a working window on
// date, from workStart (inclusive) stepping by stepMinutes while before
// workEnd. It does not look at durations; FilterAvailable does.
func GenerateSlots(
	date timezone.Date,
	workStart string,
	workEnd string,
	stepMinutes int,
	tz string,
) ([]time.Time, error) {

	if stepMinutes <= 0 {
		return nil, ErrInvalidStep
	}

	start, err := timezone.ToInstant(date, workStart, tz)
	if err != nil {
		return nil, err
	}
	end, err := timezone.ToInstant(date, workEnd, tz)
	if err != nil {
		return nil, err
	}

	if !end.After(start) {
		return []time.Time{}, nil
	}

	step := time.Duration(stepMinutes) * time.Minute
	slots := make([]time.Time, 0, int(end.Sub(start)/step)+1)

	for cur := start; cur.Before(end); cur = cur.Add(step) {
		if len(slots) >= MaxSlotsPerDay {
			break
		}
		slots = append(slots, cur.UTC())
	}

	return slots, nil
}
