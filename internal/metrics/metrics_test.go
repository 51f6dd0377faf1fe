package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveBackend("GET", "/event.php", "ok", 15*time.Millisecond)
	m.ObserveBackend("GET", "/event.php", "ok", 5*time.Millisecond)
	m.RefreshDiscarded("events")
	m.Mutation("delete_event", "success")
	m.SetSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("GET", "/event.php", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshDiscarded.WithLabelValues("events")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("delete_event", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveBackend("GET", "/x", "ok", time.Second)
		m.RefreshDiscarded("home")
		m.Mutation("login", "rejected")
		m.SetSessions(1)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Mutation("login", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `insync_mutations_total{operation="login",outcome="success"} 1`)
}
