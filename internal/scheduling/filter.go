package scheduling

import (
	"time"

	"github.com/BruksfildServices01/booking-engine/internal/timezone"
)

// Interval is a half-open [Start, End) span of absolute time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals (a.End == b.Start) do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func Overlaps(a, b Interval) bool {
	return a.Overlaps(b)
}

// Service is the part of a service definition the engine needs.
type Service struct {
	Duration time.Duration
	Buffer   time.Duration
}

func ServiceFromMinutes(durationMin, bufferMin int) Service {
	return Service{
		Duration: time.Duration(durationMin) * time.Minute,
		Buffer:   time.Duration(bufferMin) * time.Minute,
	}
}

// Occupied is the span a booking starting at s blocks for the staff member.
func (s Service) Occupied(start time.Time) Interval {
	return Interval{Start: start, End: start.Add(s.Duration + s.Buffer)}
}

// Window is a local wall-clock span such as a break, "HH:MM" to "HH:MM".
type Window struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Constraints are the commitments a candidate slot is checked against.
// Busy intervals must already include the existing appointment's buffer.
// Close is the local end of the working window; empty means unbounded.
type Constraints struct {
	Busy   []Interval
	Breaks []Window
	Close  string
}

// FilterAvailable drops every slot whose occupied span collides with a busy
// interval or a break, or whose service portion would run past closing.
// Input order is preserved.
func FilterAvailable(
	slots []time.Time,
	svc Service,
	c Constraints,
	date timezone.Date,
	tz string,
) ([]time.Time, error) {

	breaks := make([]Interval, 0, len(c.Breaks))
	for _, b := range c.Breaks {
		iv, err := WindowOn(b, date, tz)
		if err != nil {
			return nil, err
		}
		breaks = append(breaks, iv)
	}

	var closing time.Time
	if c.Close != "" {
		t, err := timezone.ToInstant(date, c.Close, tz)
		if err != nil {
			return nil, err
		}
		closing = t
	}

	out := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		if !closing.IsZero() && s.Add(svc.Duration).After(closing) {
			continue
		}
		if conflicts(s, svc, c.Busy, breaks) {
			continue
		}
		out = append(out, s)
	}

	return out, nil
}

// IsAvailable runs a single start instant through the same rules as
// FilterAvailable.
func IsAvailable(
	start time.Time,
	svc Service,
	c Constraints,
	date timezone.Date,
	tz string,
) (bool, error) {
	out, err := FilterAvailable([]time.Time{start}, svc, c, date, tz)
	if err != nil {
		return false, err
	}
	return len(out) == 1, nil
}

// WindowOn converts a local window to absolute time on date.
func WindowOn(w Window, date timezone.Date, tz string) (Interval, error) {
	start, err := timezone.ToInstant(date, w.Start, tz)
	if err != nil {
		return Interval{}, err
	}
	end, err := timezone.ToInstant(date, w.End, tz)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

func conflicts(s time.Time, svc Service, busy []Interval, breaks []Interval) bool {
	occupied := svc.Occupied(s)
	for _, b := range busy {
		if occupied.Overlaps(b) {
			return true
		}
	}

	service := Interval{Start: s, End: s.Add(svc.Duration)}
	for _, br := range breaks {
		// a break blocks the buffer as well as the service itself
		if occupied.Overlaps(br) || service.Overlaps(br) {
			return true
		}
	}
	return false
}
