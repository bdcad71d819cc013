package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Observe(t *testing.T) {
	m := New()
	m.SetWSClients(3)
	m.ObserveBroadcast(16, 4)
	m.ObserveBroadcast(16, 2)
	m.ObserveIngest("success")
	m.ObserveIngest("unassigned_device")
	m.ObserveIngest("success")
	m.ObservePrediction("wound", "mock_data_fallback")

	body := scrape(t, m)
	assert.Contains(t, body, "icu_monitor_ws_clients 3")
	assert.Contains(t, body, "icu_monitor_broadcasts_total 2")
	assert.Contains(t, body, "icu_monitor_roster_patients 16")
	assert.Contains(t, body, "icu_monitor_roster_alarms 2")
	assert.Contains(t, body, `icu_monitor_ingested_readings_total{status="success"} 2`)
	assert.Contains(t, body, `icu_monitor_ingested_readings_total{status="unassigned_device"} 1`)
	assert.Contains(t, body, `icu_monitor_image_predictions_total{kind="wound",model="mock_data_fallback"} 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetWSClients(1)
		m.ObserveBroadcast(1, 1)
		m.ObserveIngest("x")
	})
}
