package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/dto"
	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/timezone"
)

type ListAppointmentsByMonth struct {
	repo domain.Repository
}

func NewListAppointmentsByMonth(
	repo domain.Repository,
) *ListAppointmentsByMonth {
	return &ListAppointmentsByMonth{
		repo: repo,
	}
}

func (uc *ListAppointmentsByMonth) Execute(
	ctx context.Context,
	businessID uint,
	staffID uint,
	year int,
	month int,
) ([]dto.AppointmentListDTO, error) {

	if year < 1 || month < 1 || month > 12 {
		return nil, httperr.ErrBusiness("invalid_date")
	}

	business, err := uc.repo.GetBusinessByID(ctx, businessID)
	if err != nil {
		return nil, lookupErr(err, "business_not_found")
	}

	loc := timezone.Location(business.Timezone)

	first := timezone.Date{Year: year, Month: time.Month(month), Day: 1}
	start := timezone.StartOfDay(first, loc)
	end := start.AddDate(0, 1, 0)

	appointments, err := uc.repo.ListAppointmentsForPeriod(
		ctx,
		businessID,
		staffID,
		start,
		end,
	)
	if err != nil {
		return nil, err
	}

	return toListDTO(appointments, loc), nil
}
