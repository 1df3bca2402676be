// metrics.go — Prometheus HTTP метрики Share Vault.
// Регистрирует метрики: sv_http_requests_total, sv_http_request_duration_seconds.
// Бизнес-метрики (sv_files_total, sv_operations_total, sv_share_redemptions_total)
// экспортируются для обновления из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sv_http_requests_total",
			Help: "Общее количество HTTP-запросов к Share Vault",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sv_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Share Vault в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// FilesTotal — текущее количество файлов в каталоге (gauge).
	FilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sv_files_total",
			Help: "Текущее количество файлов в каталоге",
		},
	)

	// OperationsTotal — общее количество файловых операций.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sv_operations_total",
			Help: "Общее количество файловых операций",
		},
		[]string{"operation", "result"},
	)

	// ShareRedemptionsTotal — количество погашений публичных ссылок.
	ShareRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sv_share_redemptions_total",
			Help: "Количество погашений публичных ссылок по результату",
		},
		[]string{"result"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (идентификаторы и токены заменяются на {id}/{token})
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификаторы в сегментах пути на плейсхолдеры
// для предотвращения взрывного роста кардинальности метрик.
// /api/v1/files/{uuid}/download → /api/v1/files/{id}/download
// /api/v1/share/{token} → /api/v1/share/{token}
func normalizePath(path string) string {
	switch {
	case path == "/health/live", path == "/health/ready", path == "/metrics":
		return path
	case path == "/api/v1/files/upload", path == "/api/v1/limits":
		return path
	case strings.HasPrefix(path, "/api/v1/share/"):
		return "/api/v1/share/{token}"
	case strings.HasPrefix(path, "/api/v1/shares/email/"):
		return "/api/v1/shares/email/{id}/accept"
	case strings.HasPrefix(path, "/api/v1/projects/"):
		return "/api/v1/projects/{id}/activity"
	case strings.HasPrefix(path, "/api/v1/files/"):
		rest := strings.TrimPrefix(path, "/api/v1/files/")
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			return "/api/v1/files/{id}/" + rest[idx+1:]
		}
		return "/api/v1/files/{id}"
	}
	return path
}
