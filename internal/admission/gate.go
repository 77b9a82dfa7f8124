// Package admission bounds how many bookings a municipality accepts per calendar day.
package admission

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Decision is the outcome of an admission attempt.
type Decision struct {
	Allowed  bool
	Admitted int
	Limit    int
}

// Remaining returns the slots still free for the key.
func (d Decision) Remaining() int {
	if d.Admitted >= d.Limit {
		return 0
	}
	return d.Limit - d.Admitted
}

// SeedFunc reports how many bookings already occupy a key. It is consulted the
// first time a gate sees the key so a restart does not reset the cap.
type SeedFunc func(ctx context.Context, municipality string, day time.Time) (int, error)

// Gate atomically checks and increments per (municipality, date) counters.
type Gate interface {
	Admit(ctx context.Context, municipality string, scheduledAt time.Time) (Decision, error)
	// Release gives back a slot taken by Admit whose booking was never stored.
	Release(ctx context.Context, municipality string, scheduledAt time.Time) error
	Count(ctx context.Context, municipality string, scheduledAt time.Time) (int, error)
	Limit() int
}

// Day truncates t to the start of its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key derives the counter key. Buckets are the UTC day and the municipality
// compared without case; time of day never distinguishes them.
func Key(municipality string, scheduledAt time.Time) string {
	return fmt.Sprintf("%s|%s", NormalizeMunicipality(municipality), Day(scheduledAt).Format(dateLayout))
}

// NormalizeMunicipality folds a name to the form counters are keyed on.
func NormalizeMunicipality(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
