package appointment

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/booking-engine/internal/audit"
	domain "github.com/BruksfildServices01/booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/booking-engine/internal/metrics"
	"github.com/BruksfildServices01/booking-engine/internal/models"
)

const expireBatch = 100

// ExpireHolds releases payment holds nobody paid for in time.
type ExpireHolds struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	now   func() time.Time
}

func NewExpireHolds(repo domain.Repository, audit *audit.Dispatcher) *ExpireHolds {
	return &ExpireHolds{repo: repo, audit: audit, now: time.Now}
}

// Execute cancels expired holds in batches and returns how many it released.
func (uc *ExpireHolds) Execute(ctx context.Context) (int, error) {
	total := 0

	for {
		expired, err := uc.repo.ExpireHolds(ctx, uc.now().UTC(), expireBatch)
		if err != nil {
			return total, err
		}

		reportExpired(uc.audit, expired)
		total += len(expired)

		if len(expired) < expireBatch {
			return total, nil
		}
	}
}

// reportExpired records holds released by the reaper or, lazily, by a
// booking that needed their slot.
func reportExpired(d *audit.Dispatcher, expired []models.Appointment) {
	if len(expired) == 0 {
		return
	}
	metrics.AddHoldsExpired(len(expired))

	for i := range expired {
		ap := expired[i]
		d.Dispatch(audit.Event{
			BusinessID: ap.BusinessID,
			Action:     "appointment.expired",
			Entity:     "appointment",
			EntityID:   &ap.ID,
			Metadata: map[string]any{
				"staff_id":        ap.StaffID,
				"hold_expires_at": ap.HoldExpiresAt,
			},
		})
	}
}

// Run calls Execute every interval until ctx is done.
func (uc *ExpireHolds) Run(ctx context.Context, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := uc.Execute(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("hold reaper failed")
				continue
			}
			if n > 0 {
				log.Info().Int("released", n).Msg("expired payment holds released")
			}
		}
	}
}
