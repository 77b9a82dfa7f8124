package dto

import (
	"time"

	"github.com/civicdesk/municipal-booking/internal/domain"
)

// CreateBookingRequest payload.
type CreateBookingRequest struct {
	Description  string `json:"description"`
	Municipality string `json:"municipality"`
	Date         string `json:"date"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// BookingResponse is the public view of a booking. The numeric id is never exposed.
type BookingResponse struct {
	Token        string               `json:"token"`
	Description  string               `json:"description"`
	Municipality string               `json:"municipality"`
	Date         time.Time            `json:"date"`
	Status       domain.BookingStatus `json:"status"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// StatusHistoryResponse is one entry of a booking's status log.
type StatusHistoryResponse struct {
	Status    domain.BookingStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
}

// AdmissionResponse reports how full a (municipality, date) bucket is.
type AdmissionResponse struct {
	Municipality string `json:"municipality"`
	Date         string `json:"date"`
	Admitted     int    `json:"admitted"`
	Limit        int    `json:"limit"`
	Remaining    int    `json:"remaining"`
}
