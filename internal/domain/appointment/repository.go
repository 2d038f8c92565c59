package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/scheduling"
)

// AppointmentLookup selects a single appointment. Exactly one of ID or
// OrderID is set; BusinessID, when non-zero, scopes an ID lookup.
type AppointmentLookup struct {
	ID         uint
	BusinessID uint
	OrderID    string
}

// MutateFunc changes ap in place and reports whether it must be saved.
type MutateFunc func(ap *models.Appointment) (bool, error)

type Repository interface {
	// -------- Business --------
	GetBusinessBySlug(
		ctx context.Context,
		slug string,
	) (*models.Business, error)

	GetBusinessByID(
		ctx context.Context,
		id uint,
	) (*models.Business, error)

	// -------- Catalog --------
	GetService(
		ctx context.Context,
		businessID uint,
		serviceID uint,
	) (*models.Service, error)

	GetStaff(
		ctx context.Context,
		businessID uint,
		staffID uint,
	) (*models.Staff, error)

	IsStaffAssigned(
		ctx context.Context,
		staffID uint,
		serviceID uint,
	) (bool, error)

	// -------- Working hours --------
	GetWorkingHours(
		ctx context.Context,
		staffID uint,
		weekday int,
	) (*models.WorkingHours, error)

	ListWorkingHours(
		ctx context.Context,
		staffID uint,
	) ([]models.WorkingHours, error)

	ReplaceWorkingHours(
		ctx context.Context,
		staffID uint,
		rows []models.WorkingHours,
	) error

	// -------- Availability --------

	// ListBlockingIntervals returns [start, blocked_until) of every active
	// appointment of staffID intersecting [from, to). Holds expired at now
	// are left out.
	ListBlockingIntervals(
		ctx context.Context,
		staffID uint,
		from time.Time,
		to time.Time,
		now time.Time,
	) ([]scheduling.Interval, error)

	// -------- Appointment (create / conflict) --------

	// CreateAppointmentAtomic inserts ap unless it overlaps an active
	// appointment of the same staff member, in which case it returns
	// ErrSlotTaken. Concurrent calls for one staff member are serialized.
	// Stale holds of that staff member are released in the same
	// transaction and returned, so the caller can report them.
	CreateAppointmentAtomic(
		ctx context.Context,
		ap *models.Appointment,
		now time.Time,
	) ([]models.Appointment, error)

	// -------- Appointment (state change) --------

	// MutateAppointment loads the appointment under a row lock, runs fn and
	// saves when fn reports a change. Returns ErrNotFound if nothing matches.
	MutateAppointment(
		ctx context.Context,
		lookup AppointmentLookup,
		fn MutateFunc,
	) (*models.Appointment, error)

	// ExpireHolds cancels every awaiting_payment appointment whose hold
	// expired at now and returns them.
	ExpireHolds(
		ctx context.Context,
		now time.Time,
		limit int,
	) ([]models.Appointment, error)

	// -------- Listing --------
	ListAppointmentsForPeriod(
		ctx context.Context,
		businessID uint,
		staffID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)
}
