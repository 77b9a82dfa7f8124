package domain

import "time"

// StatusHistoryEntry is an immutable record of a status a booking entered.
type StatusHistoryEntry struct {
	ID           int64
	BookingToken string
	Status       BookingStatus
	Timestamp    time.Time
}
