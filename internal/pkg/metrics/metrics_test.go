package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	// 各テストで新しいレジストリを使用
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.ParticipationsTotal)
	assert.NotNil(t, m.StoreRetriesTotal)
	assert.NotNil(t, m.DistributedLockDuration)
	assert.NotNil(t, m.ListingCacheTotal)
	assert.NotNil(t, m.SuggestionsTotal)
	assert.NotNil(t, m.UpcomingEvents)
}

func TestHTTPRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/events", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/events/:id/join", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/events/:id/join", "409").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "http_requests_total" {
			found = true
			assert.Equal(t, 3, len(f.GetMetric()))
		}
	}
	assert.True(t, found, "http_requests_total metric not found")
}

func TestObserveParticipation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ObserveParticipation("join", "joined")
	m.ObserveParticipation("join", "joined")
	m.ObserveParticipation("join", "full")
	m.ObserveParticipation("leave", "left")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ParticipationsTotal.WithLabelValues("join", "joined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParticipationsTotal.WithLabelValues("join", "full")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.ParticipationsTotal))
}

func TestObserveLock(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	start := time.Now()
	m.ObserveLock("acquire", start, nil)
	m.ObserveLock("acquire", start, errors.New("busy"))
	m.ObserveLock("release", start, nil)

	assert.Equal(t, 3, testutil.CollectAndCount(m.DistributedLockDuration))
}

func TestGaugesAndCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.SetUpcomingEvents(12)
	m.ObserveStoreRetry("join")
	m.ObserveListingCache("hit")
	m.ObserveSuggestion("success")

	assert.Equal(t, 12.0, testutil.ToFloat64(m.UpcomingEvents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreRetriesTotal.WithLabelValues("join")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SuggestionsTotal.WithLabelValues("success")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveParticipation("join", "joined")
		m.ObserveStoreRetry("join")
		m.ObserveLock("acquire", time.Now(), nil)
		m.ObserveListingCache("miss")
		m.ObserveSuggestion("error")
		m.SetUpcomingEvents(1)
	})
}

func TestSetAndGet(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Set(prev) })

	m := NewWithRegistry(prometheus.NewRegistry())
	Set(m)
	assert.Same(t, m, Get())
}
