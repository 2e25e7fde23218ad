package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_PaymentFinished(t *testing.T) {
	m := New()

	m.PaymentFinished("success", decimal.NewFromInt(200), 10*time.Millisecond)
	m.PaymentFinished("success", decimal.RequireFromString("50.5"), 5*time.Millisecond)
	m.PaymentFinished("already_paid", decimal.Zero, time.Millisecond)
	m.PaymentRetried()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PaymentAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentAttempts.WithLabelValues("already_paid")))
	assert.Equal(t, 250.5, testutil.ToFloat64(m.PaymentAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentRetries))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodPost, "/jobs/:id/pay", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marketplace_http_requests_total{method="POST",route="/jobs/:id/pay",status="200"} 1`)
}
