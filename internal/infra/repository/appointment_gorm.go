package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/scheduling"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// --------------------------------------------------
// Business
// --------------------------------------------------

func (r *AppointmentGormRepository) GetBusinessBySlug(
	ctx context.Context,
	slug string,
) (*models.Business, error) {

	var b models.Business
	if err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *AppointmentGormRepository) GetBusinessByID(
	ctx context.Context,
	id uint,
) (*models.Business, error) {

	var b models.Business
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// --------------------------------------------------
// Catalog
// --------------------------------------------------

func (r *AppointmentGormRepository) GetService(
	ctx context.Context,
	businessID uint,
	serviceID uint,
) (*models.Service, error) {

	var svc models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ? AND active = ?", serviceID, businessID, true).
		First(&svc).Error; err != nil {
		return nil, notFound(err)
	}
	return &svc, nil
}

func (r *AppointmentGormRepository) GetStaff(
	ctx context.Context,
	businessID uint,
	staffID uint,
) (*models.Staff, error) {

	var staff models.Staff
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ? AND active = ?", staffID, businessID, true).
		First(&staff).Error; err != nil {
		return nil, notFound(err)
	}
	return &staff, nil
}

func (r *AppointmentGormRepository) IsStaffAssigned(
	ctx context.Context,
	staffID uint,
	serviceID uint,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Table("staff_services").
		Where("staff_id = ? AND service_id = ?", staffID, serviceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// --------------------------------------------------
// Working hours
// --------------------------------------------------

func (r *AppointmentGormRepository) GetWorkingHours(
	ctx context.Context,
	staffID uint,
	weekday int,
) (*models.WorkingHours, error) {

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("staff_id = ? AND weekday = ?", staffID, weekday).
		First(&wh).Error; err != nil {
		return nil, notFound(err)
	}
	return &wh, nil
}

func (r *AppointmentGormRepository) ListWorkingHours(
	ctx context.Context,
	staffID uint,
) ([]models.WorkingHours, error) {

	var rows []models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		Order("weekday ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentGormRepository) ReplaceWorkingHours(
	ctx context.Context,
	staffID uint,
	rows []models.WorkingHours,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("staff_id = ?", staffID).
			Delete(&models.WorkingHours{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

// activeAt restricts a query to appointments that hold their interval at now.
func activeAt(q *gorm.DB, now time.Time) *gorm.DB {
	return q.Where(
		"status IN ? AND (status <> ? OR hold_expires_at IS NULL OR hold_expires_at > ?)",
		domain.ActiveStatuses,
		string(domain.StatusAwaitingPayment),
		now.UTC(),
	)
}

func (r *AppointmentGormRepository) ListBlockingIntervals(
	ctx context.Context,
	staffID uint,
	from time.Time,
	to time.Time,
	now time.Time,
) ([]scheduling.Interval, error) {

	var apps []models.Appointment
	q := r.db.WithContext(ctx).
		Select("start_time", "blocked_until").
		Where("staff_id = ? AND start_time < ? AND blocked_until > ?", staffID, to.UTC(), from.UTC())

	if err := activeAt(q, now).
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	out := make([]scheduling.Interval, 0, len(apps))
	for _, ap := range apps {
		out = append(out, scheduling.Interval{Start: ap.StartTime, End: ap.BlockedUntil})
	}
	return out, nil
}

// --------------------------------------------------
// Appointment (create / conflict)
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateAppointmentAtomic(
	ctx context.Context,
	ap *models.Appointment,
	now time.Time,
) ([]models.Appointment, error) {

	var expired []models.Appointment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		// one booking at a time per staff member
		var staff models.Staff
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&staff, ap.StaffID).Error; err != nil {
			return notFound(err)
		}

		var err error
		expired, err = expireHolds(tx.Where("staff_id = ?", ap.StaffID), now, 0)
		if err != nil {
			return err
		}

		var count int64
		q := tx.Model(&models.Appointment{}).
			Where(
				"staff_id = ? AND start_time < ? AND blocked_until > ?",
				ap.StaffID,
				ap.BlockedUntil.UTC(),
				ap.StartTime.UTC(),
			)
		if err := activeAt(q, now).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrSlotTaken
		}

		return tx.Create(ap).Error
	})

	if err != nil {
		// rolled back: nothing was released
		if httperr.IsExclusionConflict(err) {
			return nil, domain.ErrSlotTaken
		}
		return nil, err
	}
	return expired, nil
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) MutateAppointment(
	ctx context.Context,
	lookup domain.AppointmentLookup,
	fn domain.MutateFunc,
) (*models.Appointment, error) {

	var ap models.Appointment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Clauses(clause.Locking{Strength: "UPDATE"})

		switch {
		case lookup.OrderID != "":
			q = q.Where("payment_order_id = ?", lookup.OrderID)
		case lookup.ID != 0:
			q = q.Where("id = ?", lookup.ID)
			if lookup.BusinessID != 0 {
				q = q.Where("business_id = ?", lookup.BusinessID)
			}
		default:
			return domain.ErrNotFound
		}

		if err := q.First(&ap).Error; err != nil {
			return notFound(err)
		}

		changed, err := fn(&ap)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return tx.Save(&ap).Error
	})
	if err != nil {
		return nil, err
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) ExpireHolds(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]models.Appointment, error) {

	var expired []models.Appointment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		expired, err = expireHolds(tx, now, limit)
		return err
	})
	return expired, err
}

// expireHolds cancels stale holds matched by q inside the caller's
// transaction.
func expireHolds(q *gorm.DB, now time.Time, limit int) ([]models.Appointment, error) {
	now = now.UTC()
	tx := q.Session(&gorm.Session{NewDB: false})

	var stale []models.Appointment
	find := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(
			"status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at <= ?",
			string(domain.StatusAwaitingPayment),
			now,
		).
		Order("hold_expires_at ASC")
	if limit > 0 {
		find = find.Limit(limit)
	}
	if err := find.Find(&stale).Error; err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(stale))
	for i := range stale {
		domain.Expire(&stale[i], now)
		ids = append(ids, stale[i].ID)
	}

	if err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.Appointment{}).
		Where("id IN ? AND status = ?", ids, string(domain.StatusAwaitingPayment)).
		Updates(map[string]any{
			"status":       string(domain.StatusCancelled),
			"cancelled_at": now,
		}).Error; err != nil {
		return nil, err
	}

	return stale, nil
}

// --------------------------------------------------
// Listing
// --------------------------------------------------

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	businessID uint,
	staffID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Staff").
		Where(
			"business_id = ? AND start_time >= ? AND start_time < ?",
			businessID,
			start.UTC(),
			end.UTC(),
		)
	if staffID != 0 {
		q = q.Where("staff_id = ?", staffID)
	}

	var apps []models.Appointment
	if err := q.Order("start_time ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
