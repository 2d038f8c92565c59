package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BusinessID uint `gorm:"index" json:"business_id"`

	ServiceID uint     `json:"service_id"`
	Service   *Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"service,omitempty"`

	StaffID uint   `gorm:"index:idx_appointments_staff_start" json:"staff_id"`
	Staff   *Staff `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"staff,omitempty"`

	ClientName  string `gorm:"size:100;not null" json:"client_name"`
	ClientEmail string `gorm:"size:100" json:"client_email"`
	ClientPhone string `gorm:"size:20" json:"client_phone"`

	StartTime time.Time `gorm:"index:idx_appointments_staff_start" json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// end_time plus the service buffer at booking time; only used for
	// conflict checks.
	BlockedUntil time.Time `json:"-"`
	BufferMin    int       `json:"buffer_min"`

	Status        string     `gorm:"size:20;index;default:'pending'" json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`

	Price float64 `json:"price"`
	Notes string  `gorm:"size:255" json:"notes"`

	Payment AppointmentPayment `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AppointmentPayment struct {
	Gateway        string     `gorm:"size:20" json:"gateway,omitempty"`
	OrderID        *string    `gorm:"size:100;uniqueIndex" json:"order_id,omitempty"`
	PaymentID      string     `gorm:"size:100" json:"payment_id,omitempty"`
	Method         string     `gorm:"size:50" json:"method,omitempty"`
	Amount         int64      `json:"amount"`
	Currency       string     `gorm:"size:3" json:"currency,omitempty"`
	DepositPercent int        `json:"deposit_percent"`
	Status         string     `gorm:"size:20" json:"status,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	FailedAt       *time.Time `json:"failed_at,omitempty"`
}
