// Package metrics exposes Prometheus instrumentation for the clinic server.
// Every recording method is safe to call on a nil *Collector so handlers and
// tests can run without metrics wired.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	PatientsRegistered    prometheus.Counter
	AppointmentsScheduled prometheus.Counter
	PrescriptionsIssued   prometheus.Counter
	DocumentsRendered     *prometheus.CounterVec
	ExportsTotal          *prometheus.CounterVec
	SharesTotal           *prometheus.CounterVec

	StoreDuration  *prometheus.HistogramVec
	StoreConflicts *prometheus.CounterVec
}

func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		PatientsRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "patients_registered_total",
			Help:      "Total number of patients registered.",
		}),

		AppointmentsScheduled: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "appointments_scheduled_total",
			Help:      "Total appointments scheduled.",
		}),

		PrescriptionsIssued: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "prescriptions_issued_total",
			Help:      "Total prescriptions issued.",
		}),

		DocumentsRendered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reports",
			Name:      "documents_rendered_total",
			Help:      "Patient documents rendered by kind.",
		}, []string{"kind"}),

		ExportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reports",
			Name:      "exports_total",
			Help:      "Document exports by kind and outcome.",
		}, []string{"kind", "outcome"}),

		SharesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reports",
			Name:      "shares_total",
			Help:      "Share notifications by outcome (delivered, skipped, failed).",
		}, []string{"outcome"}),

		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Collection store latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation", "collection"}),

		StoreConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "store",
			Name:      "version_conflicts_total",
			Help:      "Writes rejected because the collection changed since it was read.",
		}, []string{"collection"}),
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveRequest records one finished HTTP request.
func (c *Collector) ObserveRequest(method, path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	code := strconv.Itoa(status)
	c.RequestsTotal.WithLabelValues(method, path, code).Inc()
	c.RequestDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
}

// ObserveStore implements store.Observer.
func (c *Collector) ObserveStore(op string, coll store.Collection, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.StoreDuration.WithLabelValues(op, string(coll)).Observe(d.Seconds())
	if errors.Is(err, store.ErrVersionConflict) {
		c.StoreConflicts.WithLabelValues(string(coll)).Inc()
	}
}

func (c *Collector) PatientRegistered() {
	if c != nil {
		c.PatientsRegistered.Inc()
	}
}

func (c *Collector) AppointmentScheduled() {
	if c != nil {
		c.AppointmentsScheduled.Inc()
	}
}

func (c *Collector) PrescriptionIssued() {
	if c != nil {
		c.PrescriptionsIssued.Inc()
	}
}

func (c *Collector) DocumentRendered(kind string) {
	if c != nil {
		c.DocumentsRendered.WithLabelValues(kind).Inc()
	}
}

func (c *Collector) ExportFinished(kind, outcome string) {
	if c != nil {
		c.ExportsTotal.WithLabelValues(kind, outcome).Inc()
	}
}

func (c *Collector) ShareFinished(outcome string) {
	if c != nil {
		c.SharesTotal.WithLabelValues(outcome).Inc()
	}
}
