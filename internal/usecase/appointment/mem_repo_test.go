package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/scheduling"
)

// memRepo is an in-memory Repository. One mutex stands in for the staff
// row lock.
type memRepo struct {
	mu sync.Mutex

	businesses []models.Business
	services   []models.Service
	staff      []models.Staff
	assigned   map[[2]uint]bool
	hours      map[uint]map[int]models.WorkingHours

	appointments []models.Appointment
	nextID       uint
}

var _ domain.Repository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{
		assigned: map[[2]uint]bool{},
		hours:    map[uint]map[int]models.WorkingHours{},
	}
}

func (r *memRepo) GetBusinessBySlug(_ context.Context, slug string) (*models.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.businesses {
		if b.Slug == slug {
			b := b
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) GetBusinessByID(_ context.Context, id uint) (*models.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.businesses {
		if b.ID == id {
			b := b
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) GetService(_ context.Context, businessID, serviceID uint) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.services {
		if s.ID == serviceID && s.BusinessID == businessID && s.Active {
			s := s
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) GetStaff(_ context.Context, businessID, staffID uint) (*models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.staff {
		if s.ID == staffID && s.BusinessID == businessID && s.Active {
			s := s
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) IsStaffAssigned(_ context.Context, staffID, serviceID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assigned[[2]uint{staffID, serviceID}], nil
}

func (r *memRepo) GetWorkingHours(_ context.Context, staffID uint, weekday int) (*models.WorkingHours, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wh, ok := r.hours[staffID][weekday]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &wh, nil
}

func (r *memRepo) ListWorkingHours(_ context.Context, staffID uint) ([]models.WorkingHours, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.WorkingHours{}
	for _, wh := range r.hours[staffID] {
		out = append(out, wh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (r *memRepo) ReplaceWorkingHours(_ context.Context, staffID uint, rows []models.WorkingHours) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hours[staffID] = map[int]models.WorkingHours{}
	for _, wh := range rows {
		wh.StaffID = staffID
		r.hours[staffID][wh.Weekday] = wh
	}
	return nil
}

func (r *memRepo) ListBlockingIntervals(_ context.Context, staffID uint, from, to, now time.Time) ([]scheduling.Interval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	window := scheduling.Interval{Start: from, End: to}
	var out []scheduling.Interval
	for _, ap := range r.appointments {
		if ap.StaffID != staffID || !blocking(&ap, now) {
			continue
		}
		iv := scheduling.Interval{Start: ap.StartTime, End: ap.BlockedUntil}
		if iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func blocking(ap *models.Appointment, now time.Time) bool {
	switch domain.Status(ap.Status) {
	case domain.StatusPending, domain.StatusConfirmed:
		return true
	case domain.StatusAwaitingPayment:
		return !domain.HoldExpired(ap, now)
	default:
		return false
	}
}

func (r *memRepo) CreateAppointmentAtomic(_ context.Context, ap *models.Appointment, now time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for _, s := range r.staff {
		if s.ID == ap.StaffID {
			found = true
		}
	}
	if !found {
		return nil, domain.ErrNotFound
	}

	want := scheduling.Interval{Start: ap.StartTime, End: ap.BlockedUntil}
	for i := range r.appointments {
		cur := r.appointments[i]
		if cur.StaffID != ap.StaffID || domain.HoldExpired(&cur, now) {
			continue
		}
		if blocking(&cur, now) && want.Overlaps(scheduling.Interval{Start: cur.StartTime, End: cur.BlockedUntil}) {
			return nil, domain.ErrSlotTaken
		}
	}

	// commit: release stale holds, then insert
	var expired []models.Appointment
	for i := range r.appointments {
		cur := &r.appointments[i]
		if cur.StaffID == ap.StaffID && domain.Expire(cur, now) {
			expired = append(expired, *cur)
		}
	}

	r.nextID++
	ap.ID = r.nextID
	ap.CreatedAt = now
	r.appointments = append(r.appointments, *ap)
	return expired, nil
}

func (r *memRepo) MutateAppointment(_ context.Context, lookup domain.AppointmentLookup, fn domain.MutateFunc) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.appointments {
		cur := r.appointments[i]
		if lookup.OrderID != "" {
			if cur.Payment.OrderID == nil || *cur.Payment.OrderID != lookup.OrderID {
				continue
			}
		} else if cur.ID != lookup.ID || (lookup.BusinessID != 0 && cur.BusinessID != lookup.BusinessID) {
			continue
		}

		changed, err := fn(&cur)
		if err != nil {
			return nil, err
		}
		if changed {
			r.appointments[i] = cur
		}
		return &cur, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) ExpireHolds(_ context.Context, now time.Time, limit int) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for i := range r.appointments {
		if limit > 0 && len(out) >= limit {
			break
		}
		if domain.Expire(&r.appointments[i], now) {
			out = append(out, r.appointments[i])
		}
	}
	return out, nil
}

func (r *memRepo) ListAppointmentsForPeriod(_ context.Context, businessID, staffID uint, start, end time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, ap := range r.appointments {
		if ap.BusinessID != businessID || (staffID != 0 && ap.StaffID != staffID) {
			continue
		}
		if ap.StartTime.Before(start) || !ap.StartTime.Before(end) {
			continue
		}
		svc := r.serviceByID(ap.ServiceID)
		ap.Service = &svc
		out = append(out, ap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *memRepo) serviceByID(id uint) models.Service {
	for _, s := range r.services {
		if s.ID == id {
			return s
		}
	}
	return models.Service{}
}

func (r *memRepo) get(id uint) models.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ap := range r.appointments {
		if ap.ID == id {
			return ap
		}
	}
	return models.Appointment{}
}

func (r *memRepo) count(status domain.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ap := range r.appointments {
		if domain.Status(ap.Status) == status {
			n++
		}
	}
	return n
}
