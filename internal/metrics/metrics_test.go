package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_LookupCounters(t *testing.T) {
	c := NewCollector("test", prometheus.NewRegistry())

	c.Dispatched("search")
	c.Dispatched("search")
	c.Stale("search")
	c.CacheLookup("order", true)
	c.CacheLookup("order", false)
	c.Failed("order", "not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.LookupDispatched.WithLabelValues("search")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LookupStale.WithLabelValues("search")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheLookups.WithLabelValues("order", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LookupFailed.WithLabelValues("order", "not_found")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Dispatched("search")
		c.Stale("search")
		c.CacheLookup("order", true)
		c.Failed("order", "network")
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test", prometheus.NewRegistry())
	c.Dispatched("history")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_lookup_dispatched_total{class="history"} 1`)
}
