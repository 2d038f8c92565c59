package models

import "time"

type Business struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"size:100;not null" json:"name"`
	Slug                string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Timezone            string    `gorm:"size:64;default:'America/New_York'" json:"timezone"`
	SlotIntervalMinutes int       `gorm:"default:15" json:"slot_interval_minutes"`
	MinAdvanceMinutes   int       `gorm:"default:0" json:"min_advance_minutes"`
	Currency            string    `gorm:"size:3" json:"currency"`
	Phone               string    `gorm:"size:20" json:"phone"`
	Address             string    `gorm:"size:255" json:"address"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
