package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/booking-engine/internal/config"
	"github.com/BruksfildServices01/booking-engine/internal/models"
	"github.com/BruksfildServices01/booking-engine/internal/timezone"
)

func NewDB(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db, cfg.DefaultTimezone, log); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema. On postgres it also installs the exclusion
// constraint that keeps active appointments of one staff member from
// overlapping.
func Migrate(db *gorm.DB, defaultTZ string, log zerolog.Logger) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
			return fmt.Errorf("enable btree_gist: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&models.Business{},
		&models.Service{},
		&models.Staff{},
		&models.WorkingHours{},
		&models.Appointment{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := ensureNoOverlap(db); err != nil {
			return err
		}
	}

	if err := db.Exec(`
        UPDATE businesses
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, defaultTZ).Error; err != nil {
		return fmt.Errorf("backfill timezones: %w", err)
	}

	reportInvalidTimezones(db, log)
	return nil
}

const noOverlapConstraint = "appointments_no_overlap"

func ensureNoOverlap(db *gorm.DB) error {
	var exists bool
	if err := db.Raw(
		`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`,
		noOverlapConstraint,
	).Scan(&exists).Error; err != nil {
		return fmt.Errorf("check %s: %w", noOverlapConstraint, err)
	}
	if exists {
		return nil
	}

	err := db.Exec(`
        ALTER TABLE appointments
        ADD CONSTRAINT ` + noOverlapConstraint + `
        EXCLUDE USING gist (
            staff_id WITH =,
            tstzrange(start_time, blocked_until, '[)') WITH &&
        )
        WHERE (status IN ('pending', 'confirmed', 'awaiting_payment'))
    `).Error
	if err != nil {
		return fmt.Errorf("add %s: %w", noOverlapConstraint, err)
	}
	return nil
}

// reportInvalidTimezones logs businesses whose timezone cannot be loaded.
// Their availability requests fail until the value is fixed.
func reportInvalidTimezones(db *gorm.DB, log zerolog.Logger) {
	var rows []models.Business
	if err := db.Select("id", "slug", "timezone").Find(&rows).Error; err != nil {
		log.Warn().Err(err).Msg("could not scan business timezones")
		return
	}

	for _, b := range rows {
		if !timezone.IsValid(b.Timezone) {
			log.Error().
				Uint("business_id", b.ID).
				Str("slug", b.Slug).
				Str("timezone", b.Timezone).
				Msg("business has an invalid timezone")
		}
	}
}
