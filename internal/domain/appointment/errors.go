package appointment

import "errors"

var (
	// ErrNotFound is returned by repositories when a lookup matches nothing.
	ErrNotFound = errors.New("record not found")

	// ErrSlotTaken is returned when an insert would overlap an active
	// appointment of the same staff member.
	ErrSlotTaken = errors.New("slot unavailable")

	ErrInvalidSchedule = errors.New("invalid schedule")
)
