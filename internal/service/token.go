package service

import (
	"strings"

	"github.com/google/uuid"
)

// TokenGenerator produces the public booking handle.
type TokenGenerator interface {
	Generate() string
}

// RandomTokenGenerator issues 32 hex characters drawn from a random (v4) UUID.
// uuid panics when the entropy source is unavailable; nothing recovers from that.
type RandomTokenGenerator struct{}

func (RandomTokenGenerator) Generate() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
