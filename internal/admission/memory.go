package admission

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	mu     sync.Mutex
	seeded bool
	n      int
}

// MemoryGate keeps counters in process memory.
type MemoryGate struct {
	limit int
	seed  SeedFunc

	mu       sync.Mutex
	counters map[string]*counter
}

// NewMemoryGate builds a gate admitting at most limit bookings per key. seed may be nil.
func NewMemoryGate(limit int, seed SeedFunc) *MemoryGate {
	return &MemoryGate{
		limit:    limit,
		seed:     seed,
		counters: make(map[string]*counter),
	}
}

func (g *MemoryGate) Limit() int {
	return g.limit
}

func (g *MemoryGate) counterFor(key string) *counter {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.counters[key]
	if !ok {
		c = &counter{}
		g.counters[key] = c
	}
	return c
}

// ensureSeeded must be called with c.mu held.
func (g *MemoryGate) ensureSeeded(ctx context.Context, c *counter, municipality string, scheduledAt time.Time) error {
	if c.seeded {
		return nil
	}
	if g.seed != nil {
		n, err := g.seed(ctx, municipality, Day(scheduledAt))
		if err != nil {
			return err
		}
		c.n = n
	}
	c.seeded = true
	return nil
}

func (g *MemoryGate) Admit(ctx context.Context, municipality string, scheduledAt time.Time) (Decision, error) {
	c := g.counterFor(Key(municipality, scheduledAt))
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := g.ensureSeeded(ctx, c, municipality, scheduledAt); err != nil {
		return Decision{}, err
	}
	if c.n >= g.limit {
		return Decision{Allowed: false, Admitted: c.n, Limit: g.limit}, nil
	}
	c.n++
	return Decision{Allowed: true, Admitted: c.n, Limit: g.limit}, nil
}

func (g *MemoryGate) Release(ctx context.Context, municipality string, scheduledAt time.Time) error {
	c := g.counterFor(Key(municipality, scheduledAt))
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n > 0 {
		c.n--
	}
	return nil
}

func (g *MemoryGate) Count(ctx context.Context, municipality string, scheduledAt time.Time) (int, error) {
	c := g.counterFor(Key(municipality, scheduledAt))
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := g.ensureSeeded(ctx, c, municipality, scheduledAt); err != nil {
		return 0, err
	}
	return c.n, nil
}
