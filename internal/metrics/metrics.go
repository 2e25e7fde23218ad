// Package metrics defines the Prometheus collectors of the payments service.
//
// Collectors live on their own registry so tests can build as many Metrics
// values as they need without duplicate registration panics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "marketplace"

type Metrics struct {
	registry *prometheus.Registry

	// PaymentAttempts counts Pay calls by outcome:
	// success, not_found, already_paid, insufficient_funds, transaction_failure.
	PaymentAttempts *prometheus.CounterVec
	// PaymentAmount is the sum of all transferred amounts.
	PaymentAmount prometheus.Counter
	// PaymentDuration includes retries and lock waits.
	PaymentDuration *prometheus.HistogramVec
	PaymentRetries  prometheus.Counter

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PaymentAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_attempts_total",
			Help:      "Total number of job payment attempts, by result.",
		}, []string{"result"}),
		PaymentAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_amount_total",
			Help:      "Sum of amounts moved from clients to contractors.",
		}),
		PaymentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payments_duration_seconds",
			Help:      "Duration of job payments including lock waits and retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		PaymentRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_retries_total",
			Help:      "Number of payment transactions retried after a retryable store error.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PaymentAttempts,
		m.PaymentAmount,
		m.PaymentDuration,
		m.PaymentRetries,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// PaymentFinished records a completed Pay call.
func (m *Metrics) PaymentFinished(result string, amount decimal.Decimal, elapsed time.Duration) {
	m.PaymentAttempts.WithLabelValues(result).Inc()
	m.PaymentDuration.WithLabelValues(result).Observe(elapsed.Seconds())
	if amount.IsPositive() {
		m.PaymentAmount.Add(amount.InexactFloat64())
	}
}

func (m *Metrics) PaymentRetried() {
	m.PaymentRetries.Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
