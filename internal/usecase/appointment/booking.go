package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/scheduling"
	"github.com/BruksfildServices01/booking-engine/internal/timezone"
	"github.com/BruksfildServices01/booking-engine/internal/validators"
)

// BookingPolicy holds checks applied to every public booking.
type BookingPolicy struct {
	// VerifyEmailDomain additionally requires an MX or A record for the
	// client's email domain.
	VerifyEmailDomain bool
}

// target is everything a booking refers to, resolved and checked.
type target struct {
	business *models.Business
	service  *models.Service
	staff    *models.Staff
}

func (t target) tz() string {
	return t.business.Timezone
}

func (t target) engineService() scheduling.Service {
	return scheduling.ServiceFromMinutes(t.service.DurationMin, t.service.BufferMin)
}

// resolveTarget loads business, service and staff and checks the staff
// member performs the service.
func resolveTarget(
	ctx context.Context,
	repo domain.Repository,
	slug string,
	serviceID uint,
	staffID uint,
) (*target, error) {

	business, err := repo.GetBusinessBySlug(ctx, slug)
	if err != nil {
		return nil, lookupErr(err, "business_not_found")
	}

	if _, err := timezone.Load(business.Timezone); err != nil {
		return nil, fmt.Errorf("business %d: %w", business.ID, err)
	}

	service, err := repo.GetService(ctx, business.ID, serviceID)
	if err != nil {
		return nil, lookupErr(err, "service_not_found")
	}

	staff, err := repo.GetStaff(ctx, business.ID, staffID)
	if err != nil {
		return nil, lookupErr(err, "staff_not_found")
	}

	assigned, err := repo.IsStaffAssigned(ctx, staff.ID, service.ID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, httperr.ErrNotFound("staff_not_assigned")
	}

	return &target{business: business, service: service, staff: staff}, nil
}

func lookupErr(err error, code string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return httperr.ErrNotFound(code)
	}
	return err
}

func validateClient(c domain.ClientContact, policy BookingPolicy) error {
	if strings.TrimSpace(c.Name) == "" {
		return httperr.ErrBusiness("invalid_client")
	}
	if !validators.IsEmailSyntaxValid(c.Email) {
		return httperr.ErrBusiness("invalid_client")
	}
	if policy.VerifyEmailDomain && !validators.IsEmailDomainValid(c.Email) {
		return httperr.ErrBusiness("invalid_email_domain")
	}
	return nil
}

// checkBookable rejects starts inside the minimum advance window and starts
// whose service would fall outside the working window or into a break.
// Existing appointments are checked later, atomically, on insert.
func checkBookable(
	ctx context.Context,
	repo domain.Repository,
	t *target,
	start time.Time,
	now time.Time,
) error {

	minAdvance := time.Duration(t.business.MinAdvanceMinutes) * time.Minute
	if start.Before(now.Add(minAdvance)) {
		return httperr.ErrBusiness("too_soon")
	}

	date, _, err := timezone.ToLocal(start, t.tz())
	if err != nil {
		return err
	}

	wh, err := repo.GetWorkingHours(ctx, t.staff.ID, int(date.Weekday()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return httperr.ErrBusiness("outside_working_hours")
		}
		return err
	}

	day := domain.DayFromModel(*wh)
	if !day.Active {
		return httperr.ErrBusiness("outside_working_hours")
	}

	open, err := timezone.ToInstant(date, day.Start, t.tz())
	if err != nil {
		return err
	}
	if start.Before(open) {
		return httperr.ErrBusiness("outside_working_hours")
	}

	ok, err := scheduling.IsAvailable(
		start,
		t.engineService(),
		scheduling.Constraints{Breaks: day.Breaks, Close: day.End},
		date,
		t.tz(),
	)
	if err != nil {
		return err
	}
	if !ok {
		return httperr.ErrBusiness("outside_working_hours")
	}
	return nil
}

func newAppointment(
	t *target,
	start time.Time,
	client domain.ClientContact,
	notes string,
	status domain.Status,
) *models.Appointment {

	svc := t.engineService()
	start = start.UTC()
	end := start.Add(svc.Duration)

	return &models.Appointment{
		BusinessID:   t.business.ID,
		ServiceID:    t.service.ID,
		StaffID:      t.staff.ID,
		ClientName:   strings.TrimSpace(client.Name),
		ClientEmail:  strings.TrimSpace(client.Email),
		ClientPhone:  strings.TrimSpace(client.Phone),
		StartTime:    start,
		EndTime:      end,
		BlockedUntil: end.Add(svc.Buffer),
		BufferMin:    t.service.BufferMin,
		Status:       string(status),
		Price:        t.service.Price,
		Notes:        notes,
	}
}
