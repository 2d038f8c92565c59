package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/dto"
	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/timezone"
)

type ListAppointmentsByDate struct {
	repo domain.Repository
}

func NewListAppointmentsByDate(
	repo domain.Repository,
) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{
		repo: repo,
	}
}

// Execute lists the appointments starting on a local date of the business.
// staffID 0 lists every staff member.
func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	businessID uint,
	staffID uint,
	date timezone.Date,
) ([]dto.AppointmentListDTO, error) {

	business, err := uc.repo.GetBusinessByID(ctx, businessID)
	if err != nil {
		return nil, lookupErr(err, "business_not_found")
	}

	loc := timezone.Location(business.Timezone)

	start := timezone.StartOfDay(date, loc)
	end := timezone.StartOfDay(date.AddDays(1), loc)

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

func toListDTO(appointments []models.Appointment, loc *time.Location) []dto.AppointmentListDTO {
	out := make([]dto.AppointmentListDTO, 0, len(appointments))
	for _, ap := range appointments {
		item := dto.AppointmentListDTO{
			ID:            ap.ID,
			StartTime:     ap.StartTime.In(loc),
			EndTime:       ap.EndTime.In(loc),
			Status:        ap.Status,
			ClientName:    ap.ClientName,
			ClientEmail:   ap.ClientEmail,
			ClientPhone:   ap.ClientPhone,
			StaffID:       ap.StaffID,
			PaymentStatus: ap.Payment.Status,
			HoldExpiresAt: ap.HoldExpiresAt,
		}
		if ap.Service != nil {
			item.ServiceName = ap.Service.Name
		}
		if ap.Staff != nil {
			item.StaffName = ap.Staff.Name
		}
		out = append(out, item)
	}
	return out
}
