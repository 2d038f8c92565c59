package appointment

import (
	"fmt"
	"sort"
	"time"

	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/scheduling"
	"github.com/BruksfildServices01/booking-engine/internal/timezone"
)

// DaySchedule is one weekday of a staff member's working pattern. When
// Active is false the other fields are ignored.
type DaySchedule struct {
	Active bool
	Start  string
	End    string
	Breaks []scheduling.Window
}

// WeeklySchedule is indexed by time.Weekday, Sunday first.
type WeeklySchedule [7]DaySchedule

func (w WeeklySchedule) Day(d time.Weekday) DaySchedule {
	return w[int(d)]
}

// Validate checks every active day: well-formed clocks, start before end,
// and breaks ordered, non-overlapping and inside the working window.
func (w WeeklySchedule) Validate() error {
	for i, day := range w {
		if err := day.Validate(); err != nil {
			return fmt.Errorf("%s: %w", time.Weekday(i), err)
		}
	}
	return nil
}

func (d DaySchedule) Validate() error {
	if !d.Active {
		return nil
	}

	open, err := clock(d.Start)
	if err != nil {
		return err
	}
	closing, err := clock(d.End)
	if err != nil {
		return err
	}
	if closing <= open {
		return fmt.Errorf("%w: end %s not after start %s", ErrInvalidSchedule, d.End, d.Start)
	}

	prevEnd := open
	for _, b := range d.Breaks {
		bs, err := clock(b.Start)
		if err != nil {
			return err
		}
		be, err := clock(b.End)
		if err != nil {
			return err
		}
		if be <= bs {
			return fmt.Errorf("%w: break %s-%s is empty", ErrInvalidSchedule, b.Start, b.End)
		}
		if bs < prevEnd || be > closing {
			return fmt.Errorf("%w: break %s-%s overlaps or leaves the working window", ErrInvalidSchedule, b.Start, b.End)
		}
		prevEnd = be
	}
	return nil
}

func clock(hhmm string) (int, error) {
	m, err := timezone.ClockMinutes(hhmm)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	return m, nil
}

// ScheduleFromModels builds the weekly schedule from stored rows. Missing
// weekdays are inactive.
func ScheduleFromModels(rows []models.WorkingHours) WeeklySchedule {
	var w WeeklySchedule
	for _, r := range rows {
		if r.Weekday < 0 || r.Weekday > 6 {
			continue
		}
		w[r.Weekday] = DayFromModel(r)
	}
	return w
}

func DayFromModel(r models.WorkingHours) DaySchedule {
	breaks := make([]scheduling.Window, 0, len(r.Breaks))
	for _, b := range r.Breaks {
		breaks = append(breaks, scheduling.Window{Start: b.Start, End: b.End})
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].Start < breaks[j].Start })

	return DaySchedule{
		Active: r.Active && r.StartTime != "" && r.EndTime != "",
		Start:  r.StartTime,
		End:    r.EndTime,
		Breaks: breaks,
	}
}

// ToModels returns one row per weekday for staffID.
func (w WeeklySchedule) ToModels(staffID uint) []models.WorkingHours {
	rows := make([]models.WorkingHours, 0, len(w))
	for i, d := range w {
		breaks := make(models.BreakWindows, 0, len(d.Breaks))
		for _, b := range d.Breaks {
			breaks = append(breaks, models.BreakWindow{Start: b.Start, End: b.End})
		}
		rows = append(rows, models.WorkingHours{
			StaffID:   staffID,
			Weekday:   i,
			Active:    d.Active,
			StartTime: d.Start,
			EndTime:   d.End,
			Breaks:    breaks,
		})
	}
	return rows
}
