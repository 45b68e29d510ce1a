// Package metrics регистрирует метрики Prometheus сервиса.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recovera"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	paymentsVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "payments_verified_total",
			Help:      "Total number of verified payments",
		},
		[]string{"provider", "result"},
	)

	paymentIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "payment_intents_total",
			Help:      "Total number of created payment intents",
		},
		[]string{"provider", "plan"},
	)

	deviceBinds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "binds_total",
			Help:      "Total number of device bind attempts",
		},
		[]string{"result"},
	)

	recoveryReports = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recovery",
			Name:      "reports_total",
			Help:      "Total number of stored recovery reports",
		},
	)

	expiredAccounts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "expired_accounts_total",
			Help:      "Total number of subscriptions moved to expired",
		},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "sent_total",
			Help:      "Total number of processed notifications",
		},
		[]string{"type", "result"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware пишет счётчик, длительность и число активных HTTP-запросов.
// Путь берётся из шаблона маршрута chi, чтобы не плодить метки по идентификаторам.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}
		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(time.Since(start).Seconds())
	})
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPaymentVerified учитывает результат подтверждения платежа.
func RecordPaymentVerified(provider, result string) {
	paymentsVerified.WithLabelValues(provider, result).Inc()
}

// RecordPaymentIntent учитывает созданное намерение оплаты.
func RecordPaymentIntent(provider, plan string) {
	paymentIntents.WithLabelValues(provider, plan).Inc()
}

// RecordDeviceBind учитывает попытку привязки устройства.
func RecordDeviceBind(result string) {
	deviceBinds.WithLabelValues(result).Inc()
}

// RecordRecoveryReport учитывает сохранённый отчёт.
func RecordRecoveryReport() {
	recoveryReports.Inc()
}

// AddExpiredAccounts учитывает n просроченных подписок.
func AddExpiredAccounts(n int) {
	expiredAccounts.Add(float64(n))
}

// RecordNotification учитывает обработанное уведомление.
func RecordNotification(notificationType, result string) {
	notificationsSent.WithLabelValues(notificationType, result).Inc()
}
