package dto

import "time"

type AppointmentListDTO struct {
	ID            uint       `json:"id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	Status        string     `json:"status"`
	ClientName    string     `json:"client_name"`
	ClientEmail   string     `json:"client_email"`
	ClientPhone   string     `json:"client_phone"`
	ServiceName   string     `json:"service_name"`
	StaffID       uint       `json:"staff_id"`
	StaffName     string     `json:"staff_name"`
	PaymentStatus string     `json:"payment_status,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}
