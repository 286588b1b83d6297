package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/api/v1/calendar", http.StatusOK, 10*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/calendar", http.StatusOK, 30*time.Millisecond)
	m.ObserveDBQuery("persist_event", 4*time.Millisecond)
	m.RecordCalendarOperation(opAddEvent, "ok")
	m.RecordCalendarOperation(opAddEvent, "conflict")
	m.RecordCalendarOperation(opRemoveEvent, "ok")
	m.RecordDeleteVerification(true)
	m.RecordDeleteVerification(false)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(1), snap.DBQueryCount)
	assert.Equal(t, uint64(1), snap.EventsAdded)
	assert.Equal(t, uint64(1), snap.EventsRemoved)
	assert.Equal(t, uint64(1), snap.DirtyDeletes)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordCalendarOperation(opFindSlots, "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `calendar_operations_total{operation="find_slots",outcome="ok"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveDBQuery("x", time.Millisecond)
	m.RecordCalendarOperation(opLoad, "ok")
	assert.Zero(t, m.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
