package domain

import "time"

// Employee is a municipal worker that tasks can be assigned to.
type Employee struct {
	ID           int64
	Name         string
	Email        string
	Municipality string
	Role         string
	CreatedAt    time.Time
}
