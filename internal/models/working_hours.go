package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type WorkingHours struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	StaffID uint `gorm:"uniqueIndex:idx_working_hours_staff_day" json:"staff_id"`

	Weekday int `gorm:"uniqueIndex:idx_working_hours_staff_day" json:"weekday"`

	StartTime string       `gorm:"size:5" json:"start_time"`
	EndTime   string       `gorm:"size:5" json:"end_time"`
	Breaks    BreakWindows `gorm:"type:text" json:"breaks"`
	Active    bool         `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BreakWindow struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// BreakWindows is stored as a JSON array in a single column.
type BreakWindows []BreakWindow

func (b BreakWindows) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (b *BreakWindows) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*b = BreakWindows{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("breaks: unsupported column type %T", src)
	}
	if len(raw) == 0 {
		*b = BreakWindows{}
		return nil
	}
	return json.Unmarshal(raw, b)
}
