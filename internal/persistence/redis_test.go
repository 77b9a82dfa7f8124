package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicdesk/municipal-booking/internal/config"
)

func TestRedisPing(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	r := NewRedis(ctx, config.RedisConfig{Addr: s.Addr()}, zap.NewNop())
	defer r.Close()
	require.True(t, r.Configured())
	assert.NoError(t, r.Ping(ctx))

	s.Close()
	assert.Error(t, r.Ping(ctx))
}

func TestRedisUnconfigured(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	assert.False(t, r.Configured())
	assert.Error(t, r.Ping(context.Background()))

	var pg *Postgres
	assert.False(t, pg.Configured())
	assert.Error(t, pg.Ping(context.Background()))
}
