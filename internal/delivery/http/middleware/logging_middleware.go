package middleware

import (
	"net/http"
	"strconv"
	"time"

	"lunar-cancer-care/pkg/metrics"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type LoggingMiddleware struct {
	log       *logrus.Logger
	collector *metrics.Collector
}

func NewLoggingMiddleware(log *logrus.Logger, collector *metrics.Collector) *LoggingMiddleware {
	return &LoggingMiddleware{
		log:       log,
		collector: collector,
	}
}

// Handle logs one line per request and records request metrics labelled by
// route template, so patient ids never become label values.
func (m *LoggingMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		if m.collector != nil {
			m.collector.InFlightGauge.Inc()
			defer m.collector.InFlightGauge.Dec()
		}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		duration := time.Since(start)
		status := strconv.Itoa(rec.status)

		if m.collector != nil {
			m.collector.RequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			m.collector.RequestDuration.WithLabelValues(r.Method, route, status).Observe(duration.Seconds())
		}

		entry := m.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       route,
			"status":      rec.status,
			"duration_ms": duration.Milliseconds(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request completed")
	})
}
