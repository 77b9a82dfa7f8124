package domain

import (
	"strings"
	"time"
)

// BookingStatus enumerates lifecycle states for bookings.
type BookingStatus string

const (
	BookingStatusReceived   BookingStatus = "RECEIVED"
	BookingStatusAssigned   BookingStatus = "ASSIGNED"
	BookingStatusInProgress BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
)

// allowedTransitions lists every forward edge of the booking state machine.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusReceived:   {BookingStatusAssigned, BookingStatusInProgress, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusAssigned:   {BookingStatusInProgress, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted:  {},
	BookingStatusCancelled:  {},
}

// ParseBookingStatus validates a wire value against the closed set of statuses.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := allowedTransitions[status]; !ok {
		return "", false
	}
	return status, true
}

// IsTerminal reports whether no further transition can leave the status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Booking is the aggregate for a citizen service request.
type Booking struct {
	ID           int64
	Token        string
	Description  string
	Municipality string
	ScheduledAt  time.Time
	Status       BookingStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
