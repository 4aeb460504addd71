// Package metrics метрики Prometheus сервиса бронирования.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "altomayo"

// Metrics структура для метрик Prometheus.
type Metrics struct {
	ReservationsTotal  *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	ValidationFailures *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	OpenForms          prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New регистрирует метрики в reg. nil означает регистратор по умолчанию.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ReservationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reservation submissions by outcome.",
		}, []string{"outcome"}),

		SubmissionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reservation_submission_duration_seconds",
			Help:      "Time spent handling a reservation submission.",
			Buckets:   prometheus.DefBuckets,
		}),

		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_validation_failures_total",
			Help:      "Rejected reservation inputs by field.",
		}, []string{"field"}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Reservation notifications by channel and result.",
		}, []string{"channel", "result"}),

		OpenForms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reservation_forms_open",
			Help:      "Reservation forms currently open.",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveReservation учитывает результат одной отправки.
func (m *Metrics) ObserveReservation(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(outcome).Inc()
	m.SubmissionDuration.Observe(time.Since(started).Seconds())
}

// IncValidationFailure учитывает отклоненное поле формы.
func (m *Metrics) IncValidationFailure(field string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(field).Inc()
}

// IncNotification учитывает отправку уведомления.
func (m *Metrics) IncNotification(channel string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Notifications.WithLabelValues(channel, result).Inc()
}

// SetOpenForms обновляет число открытых форм.
func (m *Metrics) SetOpenForms(n int) {
	if m == nil {
		return
	}
	m.OpenForms.Set(float64(n))
}

// Middleware считает запросы по шаблону маршрута, а не по фактическому пути.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
