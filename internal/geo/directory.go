// Package geo resolves municipality names against an external geography provider.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultDirectoryURL lists every Portuguese municipality as a JSON array of names.
const DefaultDirectoryURL = "https://json.geoapi.pt/municipios"

// Directory resolves a municipality name to the provider's spelling.
type Directory interface {
	Resolve(ctx context.Context, municipality string) (canonical string, found bool, err error)
}

// HTTPDirectory fetches the municipality list over HTTP and caches it for ttl.
type HTTPDirectory struct {
	url     string
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu        sync.Mutex
	names     map[string]string
	fetchedAt time.Time
}

// NewHTTPDirectory builds a directory client.
func NewHTTPDirectory(url string, ttl time.Duration) *HTTPDirectory {
	return &HTTPDirectory{
		url:     url,
		ttl:     ttl,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
}

// Resolve matches case-insensitively after trimming and returns the name as
// the provider lists it.
func (d *HTTPDirectory) Resolve(ctx context.Context, municipality string) (string, bool, error) {
	names, err := d.load(ctx)
	if err != nil {
		return "", false, err
	}
	canonical, ok := names[normalize(municipality)]
	return canonical, ok, nil
}

func (d *HTTPDirectory) load(ctx context.Context) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.names != nil && d.now().Sub(d.fetchedAt) < d.ttl {
		return d.names, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Get(d.url).Timeout(d.timeout)
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("fetch municipality directory: %w", errs[0])
	}
	if status != fiber.StatusOK {
		return nil, fmt.Errorf("fetch municipality directory: unexpected status %d", status)
	}

	var list []string
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode municipality directory: %w", err)
	}
	names := make(map[string]string, len(list))
	for _, name := range list {
		names[normalize(name)] = strings.TrimSpace(name)
	}
	d.names = names
	d.fetchedAt = d.now()
	return names, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
