package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "icu_monitor"

// Metrics 服务指标；方法均允许 nil 接收者（测试中不注册指标）
type Metrics struct {
	registry *prometheus.Registry

	wsClients        prometheus.Gauge
	broadcasts       prometheus.Counter
	rosterSize       prometheus.Gauge
	activeAlarms     prometheus.Gauge
	ingestedReadings *prometheus.CounterVec
	predictions      *prometheus.CounterVec
}

// New 创建并注册到独立 registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected /ws clients.",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Roster frames broadcast to /ws clients.",
		}),
		rosterSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "roster_patients",
			Help:      "Patients in the last broadcast roster.",
		}),
		activeAlarms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "roster_alarms",
			Help:      "Alarms in the last broadcast roster.",
		}),
		ingestedReadings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_readings_total",
			Help:      "Monitor readings processed, by result status.",
		}, []string{"status"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_predictions_total",
			Help:      "Image predictions served, by kind and model used.",
		}, []string{"kind", "model"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.wsClients, m.broadcasts, m.rosterSize, m.activeAlarms, m.ingestedReadings, m.predictions,
	)
	return m
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}

// ObserveBroadcast 记录一次推送
func (m *Metrics) ObserveBroadcast(patients, alarms int) {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
	m.rosterSize.Set(float64(patients))
	m.activeAlarms.Set(float64(alarms))
}

func (m *Metrics) ObserveIngest(status string) {
	if m == nil {
		return
	}
	m.ingestedReadings.WithLabelValues(status).Inc()
}

// ObservePrediction kind 为 disease / wound；model 为 mock 时即推理退回
func (m *Metrics) ObservePrediction(kind, model string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(kind, model).Inc()
}
