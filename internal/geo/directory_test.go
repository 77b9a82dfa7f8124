package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPDirectory(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["Porto","Lisboa","Vila Nova de Gaia"]`))
	}))
	defer srv.Close()

	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	dir := NewHTTPDirectory(srv.URL, time.Hour)
	dir.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("ResolvesIgnoringCase", func(t *testing.T) {
		for _, variant := range []string{"  porto ", "PORTO", "pOrto"} {
			name, ok, err := dir.Resolve(ctx, variant)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "Porto", name)
		}

		name, ok, err := dir.Resolve(ctx, "vila nova de gaia")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Vila Nova de Gaia", name)

		_, ok, err = dir.Resolve(ctx, "Atlantis")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("RefetchesAfterTTL", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, ok, err := dir.Resolve(ctx, "Lisboa")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int32(2), hits.Load())
	})
}

func TestHTTPDirectoryUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL, time.Hour)
	_, _, err := dir.Resolve(context.Background(), "Porto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
