package dto

import "time"

// CreateEmployeeRequest payload.
type CreateEmployeeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Municipality string `json:"municipality"`
	Role         string `json:"role"`
}

// EmployeeResponse representation.
type EmployeeResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Municipality string    `json:"municipality"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
