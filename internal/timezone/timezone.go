package timezone

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultTimezone = "America/New_York"

var (
	ErrInvalidTimeZone   = errors.New("invalid time zone")
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
)

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// Load resolves an IANA zone name. Unlike Location it never falls back.
func Load(tz string) (*time.Location, error) {
	if strings.TrimSpace(tz) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTimeZone)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, tz)
	}
	return loc, nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, _ := time.LoadLocation(DefaultTimezone)
	return loc
}

func Now() time.Time {
	return time.Now().In(Location(DefaultTimezone))
}

func NowIn(tz string) time.Time {
	return time.Now().In(Location(tz))
}

// --------------------------------------------------
// Wall clock
// --------------------------------------------------

// ParseClock parses a 24h "HH:MM" string into hour and minute.
func ParseClock(hhmm string) (int, int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	// Atoi alone would accept signs such as "+9:00"
	for _, i := range []int{0, 1, 3, 4} {
		if hhmm[i] < '0' || hhmm[i] > '9' {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
		}
	}
	h, errH := strconv.Atoi(hhmm[:2])
	m, errM := strconv.Atoi(hhmm[3:])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	return h, m, nil
}

// ClockMinutes returns minutes since local midnight for "HH:MM".
func ClockMinutes(hhmm string) (int, error) {
	h, m, err := ParseClock(hhmm)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// ToInstant converts a local calendar date and wall-clock time in tz to an
// absolute instant. Times inside a DST gap or overlap are resolved by
// time.Date normalisation.
func ToInstant(date Date, hhmm string, tz string) (time.Time, error) {
	loc, err := Load(tz)
	if err != nil {
		return time.Time{}, err
	}
	if !date.Valid() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}
	h, m, err := ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year, date.Month, date.Day, h, m, 0, 0, loc), nil
}

// ToLocal is the inverse of ToInstant: it returns the calendar date and
// "HH:MM" wall-clock time of t as observed in tz.
func ToLocal(t time.Time, tz string) (Date, string, error) {
	loc, err := Load(tz)
	if err != nil {
		return Date{}, "", err
	}
	lt := t.In(loc)
	return DateOf(lt), lt.Format("15:04"), nil
}

// StartOfDay returns local midnight of date in loc.
func StartOfDay(date Date, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, loc)
}
