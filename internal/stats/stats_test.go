package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenCache(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOverviewFetchAndCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Chat/statistics", r.URL.Path)
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("from"))
		w.Write([]byte(`{"data": {"totalSessions": 120, "totalMessages": 900, "activeUsers": 34,
			"byModule": [{"module": "IT", "sessions": 80}]}}`))
	}))
	defer srv.Close()

	cache := openTestCache(t)
	c := New(Options{BaseURL: srv.URL, Cache: cache})

	ov, stale, err := c.Overview(context.Background(), "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, 120, ov.TotalSessions)

	// The successful fetch is now cached for the same range.
	cached, err := cache.Get("2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 120, cached.TotalSessions)
}

func TestOverviewFallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cache := openTestCache(t)
	require.NoError(t, cache.Put("", "", &Overview{TotalSessions: 7}))

	c := New(Options{BaseURL: srv.URL, Cache: cache})

	ov, stale, err := c.Overview(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, stale, "fallback result must be marked stale")
	assert.Equal(t, 7, ov.TotalSessions)
}

func TestOverviewErrorsWithoutFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Cache: openTestCache(t)})

	_, _, err := c.Overview(context.Background(), "", "")
	assert.Error(t, err)
}

func TestOverviewTimeout(t *testing.T) {
	var hit atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cache := openTestCache(t)
	require.NoError(t, cache.Put("", "", &Overview{TotalSessions: 3}))

	c := New(Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond, Cache: cache})

	ov, stale, err := c.Overview(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, hit.Load())
	assert.True(t, stale)
	assert.Equal(t, 3, ov.TotalSessions)
}

func TestCacheGetMissing(t *testing.T) {
	cache := openTestCache(t)
	ov, err := cache.Get("x", "y")
	require.NoError(t, err)
	assert.Nil(t, ov)
}

func TestOverviewBarePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalSessions": 5}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	ov, stale, err := c.Overview(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, 5, ov.TotalSessions)
}
