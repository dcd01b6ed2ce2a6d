package dto

import "time"

// Request DTOs

type CreateStaffRequest struct {
	FirstName string `json:"first_name" validate:"required,notblank,max=100"`
	LastName  string `json:"last_name" validate:"required,notblank,max=100"`
	Role      string `json:"role" validate:"required,oneof=admin doctor nurse receptionist pharmacist"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
}

// Response DTOs

type StaffResponse struct {
	StaffID   string    `json:"staff_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StaffListResponse struct {
	Staff []StaffResponse `json:"staff"`
	Total int64           `json:"total"`
}
